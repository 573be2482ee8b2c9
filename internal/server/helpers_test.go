package server

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

type nopLoggerForTest struct{}

func (n nopLoggerForTest) Debug(context.Context, string, ...any) {}
func (n nopLoggerForTest) Info(context.Context, string, ...any)  {}
func (n nopLoggerForTest) Warn(context.Context, string, ...any)  {}
func (n nopLoggerForTest) Error(context.Context, string, ...any) {}
func (n nopLoggerForTest) With(...any) logging.Logger            { return n }
