package cmd

import (
	"context"
	"fmt"
	"strings"

	"nagctl/internal/configstore"
	"nagctl/internal/nagios"
	"nagctl/internal/reconcile"
	"nagctl/internal/validator"
)

// parseParams converts repeated key=value flags into object parameters, and
// folds in the attributes named by removal flags as nil values.
func parseParams(setFlags []string, removeFlags []string) (map[string]interface{}, error) {
	params := make(map[string]interface{}, len(setFlags)+len(removeFlags))
	for _, kv := range setFlags {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", kv)
		}
		params[key] = value
	}
	for _, key := range removeFlags {
		if key == "" {
			return nil, fmt.Errorf("empty attribute name in removal flag")
		}
		params[key] = nil
	}
	return params, nil
}

// keyParams builds the identifying parameters for commands that take a bare
// object name: the name is assigned to the type's primary key attribute.
func keyParams(t nagios.ObjectType, name string, extra map[string]interface{}) map[string]interface{} {
	params := make(map[string]interface{}, len(extra)+1)
	for k, v := range extra {
		params[k] = v
	}
	if name != "" {
		params[nagios.KeyAttributes(t)[0]] = name
	}
	return params
}

// baseRequest carries the root-level configuration flags into a request.
func baseRequest() reconcile.Request {
	return reconcile.Request{
		State:     reconcile.StatePresent,
		Update:    true,
		NagiosCfg: rootNagiosCfg,
		ConfigDir: rootConfigDir,
	}
}

// loadStore builds the config store for read-only commands (get, list) from
// the root-level flags, discovering nagios.cfg when neither flag is set.
func loadStore(ctx context.Context) (*configstore.Store, error) {
	if rootConfigDir != "" {
		return configstore.LoadDir(ctx, rootConfigDir)
	}
	cfg := rootNagiosCfg
	if cfg == "" {
		found, err := validator.FindMainConfig()
		if err != nil {
			return nil, err
		}
		cfg = found
	}
	return configstore.Load(ctx, cfg)
}

// resultError converts a failed result into the error the CLI exits with.
func resultError(res reconcile.Result) error {
	if !res.Failed {
		return nil
	}
	if res.Reverted {
		return &revertedError{message: res.Message}
	}
	return fmt.Errorf("%s", res.Message)
}
