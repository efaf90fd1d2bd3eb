// Package config loads datumkit configuration with Viper.
//
// Values come from a YAML file, a .env file and prefixed environment
// variables, in increasing order of precedence.
//
// # Usage
//
//	cfg, err := config.New("resampler")
//	rt, err := config.Start(ctx, cfg)
//	defer rt.Shutdown(ctx)
//	opts, _ := rt.RunOptions()
//	out, err := p.Run(ctx, collection, opts...)
//
// RESAMPLER_EXECUTION_WORKERS=8 overrides execution.workers.
package config
