package main

import (
	"github.com/imedwei/gfs-backup/internal/cli"
)

var (
	version string
	commit  string
	date    string
)

func main() {
	if version != "" {
		cli.SetVersionInfo(version, commit, date)
	}
	cli.Execute()
}
