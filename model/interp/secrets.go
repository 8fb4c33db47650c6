package interp

import (
	"context"
	"fmt"

	"github.com/viant/scy"
	"github.com/viant/scy/cred"
	"github.com/viant/toolbox"
)

// Source names a secret resource whose value joins the interpolation table,
// so scripts can type credentials without placing them in the environment or
// in the script text.
type Source struct {
	// Name is the variable name scripts reference as `${Name}`. Structured
	// secrets bind one entry per field as `Name_field`.
	Name string `json:"name" yaml:"name"`

	// URL locates the encrypted secret, e.g. "blowfish://default" protected
	// local file or a cloud secret manager resource.
	URL string `json:"url" yaml:"url"`

	// Key optionally names the encryption key resource.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	// Target optionally names the credential type ("basic", "generic", ...).
	// Empty or "raw" loads the secret as plain text.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
}

// ResolveSecrets loads every source and merges the resulting entries into the
// snapshot. Resolution happens once, at script load time, so execution never
// blocks on secret storage.
func (s *Snapshot) ResolveSecrets(ctx context.Context, service *scy.Service, sources []Source) error {
	for _, source := range sources {
		entries, err := resolveSource(ctx, service, source)
		if err != nil {
			return err
		}
		for name, value := range entries {
			s.Set(name, value)
		}
	}
	return nil
}

func resolveSource(ctx context.Context, service *scy.Service, source Source) (map[string]string, error) {
	if source.Name == "" || source.URL == "" {
		return nil, fmt.Errorf("interp: secret source requires name and url")
	}
	var target interface{}
	if source.Target != "" && source.Target != "raw" {
		targetType, err := cred.TargetType(source.Target)
		if err != nil {
			return nil, fmt.Errorf("interp: invalid secret target %q: %w", source.Target, err)
		}
		if targetType != nil {
			target = targetType
		}
	}
	resource := scy.NewResource(target, source.URL, source.Key)
	secret, err := service.Load(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("interp: failed to load secret %q from %s: %w", source.Name, source.URL, err)
	}

	entries := map[string]string{}
	if !secret.IsPlain && secret.Target != nil {
		aMap := map[string]interface{}{}
		if err := toolbox.DefaultConverter.AssignConverted(&aMap, secret.Target); err != nil {
			return nil, fmt.Errorf("interp: failed to convert secret %q: %w", source.Name, err)
		}
		aMap = toolbox.DeleteEmptyKeys(aMap)
		for key, value := range aMap {
			entries[source.Name+"_"+key] = toolbox.AsString(value)
		}
		return entries, nil
	}
	entries[source.Name] = secret.String()
	return entries, nil
}
