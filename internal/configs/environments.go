package config

import (
	"fmt"

	"github.com/spf13/viper"

	errs "taskhub.com/taskhub/internal/errors"
)

// Built-in environment → table bindings, overridable by a YAML file of the
// shape:
//
//	environments:
//	  playground: media_tasks_playground
//	  production: media_tasks
var defaultEnvironments = map[string]string{
	"playground": "media_tasks_playground",
	"production": "media_tasks",
}

// TableForEnvironment resolves the task table bound to the named
// environment. The table identifier is interpolated into SQL, so callers
// must still pass it through the hub's identifier check; this only selects
// it.
func TableForEnvironment(environmentsFile, environment string) (string, error) {
	envs := defaultEnvironments

	if environmentsFile != "" {
		v := viper.New()
		v.SetConfigFile(environmentsFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("read environments file: %w", err)
		}
		loaded := v.GetStringMapString("environments")
		if len(loaded) == 0 {
			return "", fmt.Errorf("environments file %s has no environments section", environmentsFile)
		}
		envs = loaded
	}

	table, ok := envs[environment]
	if !ok || table == "" {
		return "", fmt.Errorf("%w: %q", errs.ErrUnknownEnvironment, environment)
	}
	return table, nil
}
