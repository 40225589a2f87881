/*

Package `zap` wraps Zap logging.

Zap is used through its sugared logger, whose `Levelw(msg, kv ...)` functions
match the small `Logger` interfaces that the `cdds` packages declare.

*/
package zap

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// We use the convenience sugared logger `Levelw(msg, kv...)` functions.
type Logger = zap.SugaredLogger

func NewProduction() (*Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func NewDevelopment() (*Logger, error) {
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// `NewProductionDebug()` is like `NewProduction()` but also emits debug
// messages, which the gateways use to log raw `moo` output.
func NewProductionDebug() (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
