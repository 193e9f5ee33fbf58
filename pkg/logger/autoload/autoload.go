// Package autoload configures the global logger from the LOG_* environment on
// import. Blank-import it from main.
package autoload

import (
	configx "parley/pkg/config"
	logx "parley/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
