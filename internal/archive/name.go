package archive

import (
	"fmt"
	"time"
)

// timestampLayout is embedded in every archive name. Retention parses the
// leading date section back out, and interoperating tooling greps for it, so
// the shape is load-bearing.
const timestampLayout = "2006-01-02-15-04-05"

// Name builds the canonical archive object name for a source:
// {source}-{YYYY-MM-DD-HH-MM-SS}{suffix}.
func Name(source string, t time.Time, suffix string) string {
	return fmt.Sprintf("%s-%s%s", source, t.Format(timestampLayout), suffix)
}
