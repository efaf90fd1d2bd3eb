// Package version reports datumkit build information.
//
//	go build -ldflags "-X github.com/kbukum/datumkit/version.Version=1.2.0"
package version
