//go:build tools
// +build tools

// Package tools pins the linter and the ginkgo test runner so that
// `go run github.com/onsi/ginkgo/ginkgo ./...` uses the versions in go.mod.
// See https://github.com/golang/go/wiki/Modules#how-can-i-track-tool-dependencies-for-a-module
package tools

import (
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint"
	_ "github.com/onsi/ginkgo/ginkgo"
)
