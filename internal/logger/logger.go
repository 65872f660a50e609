// Package logger builds the process-wide structured logger.
package logger

import "go.uber.org/zap"

// New returns a sugared logger: console output in development, JSON
// in production. The binary constructs exactly one and threads it
// through the component constructors.
func New(development bool) (*zap.SugaredLogger, error) {
	var l *zap.Logger
	var err error
	if development {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
