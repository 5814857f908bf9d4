package osc_test

import "github.com/okian/audioquery/pkg/logger"

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}
