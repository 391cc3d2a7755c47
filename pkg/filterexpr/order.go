package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// OrderSchema describes ordering defaults and the whitelisted keys, in the
// order they should be preferred when a deterministic tie-break is needed.
type OrderSchema struct {
	DefaultPrimary     string
	DefaultPrimaryDesc bool
	FallbackKey        string
	FallbackDesc       bool
	Keys               []string
}

func (s OrderSchema) allows(key string) bool {
	for _, k := range s.Keys {
		if k == key {
			return true
		}
	}
	return false
}

type orderParams struct {
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

// parseOrderBy resolves "key [asc|desc], key [asc|desc]" into primary and
// secondary sort parameters, falling back to the schema defaults. The
// secondary key always differs from the primary so pagination stays stable.
func parseOrderBy(raw string, schema OrderSchema) (orderParams, error) {
	if schema.DefaultPrimary == "" {
		return orderParams{}, errors.New("order schema default primary key required")
	}
	if schema.FallbackKey == "" {
		return orderParams{}, errors.New("order schema fallback key required")
	}
	if !schema.allows(schema.DefaultPrimary) {
		return orderParams{}, fmt.Errorf("order key %q missing from schema keys", schema.DefaultPrimary)
	}
	if !schema.allows(schema.FallbackKey) {
		return orderParams{}, fmt.Errorf("fallback order key %q missing from schema keys", schema.FallbackKey)
	}

	ord := orderParams{
		PrimaryKey:    schema.DefaultPrimary,
		PrimaryDesc:   schema.DefaultPrimaryDesc,
		SecondaryKey:  schema.FallbackKey,
		SecondaryDesc: schema.FallbackDesc,
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ord, nil
	}

	seen := make(map[string]struct{}, 2)
	idx := 0
	for _, seg := range strings.Split(raw, ",") {
		parts := strings.Fields(seg)
		if len(parts) == 0 {
			continue
		}

		key := parts[0]
		if !schema.allows(key) {
			return orderParams{}, fmt.Errorf("field %q cannot be used for ordering", key)
		}

		var desc bool
		switch len(parts) {
		case 1:
		case 2:
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				desc = true
			default:
				return orderParams{}, fmt.Errorf("invalid direction %q for field %q", parts[1], key)
			}
		default:
			return orderParams{}, fmt.Errorf("invalid order segment %q", strings.TrimSpace(seg))
		}

		if _, dup := seen[key]; dup {
			return orderParams{}, fmt.Errorf("duplicate order key %q", key)
		}
		seen[key] = struct{}{}

		switch idx {
		case 0:
			ord.PrimaryKey = key
			ord.PrimaryDesc = desc
		case 1:
			ord.SecondaryKey = key
			ord.SecondaryDesc = desc
		default:
			return orderParams{}, errors.New("order_by supports at most two keys")
		}
		idx++
	}

	if idx < 2 {
		ord.SecondaryKey = schema.FallbackKey
		ord.SecondaryDesc = schema.FallbackDesc
	}
	if ord.SecondaryKey == ord.PrimaryKey {
		// the fallback duplicates the requested primary: pick the first other
		// whitelisted key so the ordering stays total
		ord.SecondaryKey = ""
		for _, key := range schema.Keys {
			if key != ord.PrimaryKey {
				ord.SecondaryKey = key
				ord.SecondaryDesc = false
				break
			}
		}
		if ord.SecondaryKey == "" {
			return orderParams{}, errors.New("order schema requires at least two distinct keys for stable ordering")
		}
	}

	return ord, nil
}

// setOrderParams writes the resolved order onto the query struct's
// PrimaryKey/PrimaryDesc/SecondaryKey/SecondaryDesc fields.
func setOrderParams(binding any, ord orderParams) error {
	rv := reflect.ValueOf(binding)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("binding must be a non-nil pointer")
	}
	target := rv.Elem()
	if target.Kind() != reflect.Struct {
		return errors.New("binding must point to a struct")
	}

	assignments := []struct {
		name  string
		value reflect.Value
	}{
		{"PrimaryKey", reflect.ValueOf(ord.PrimaryKey)},
		{"PrimaryDesc", reflect.ValueOf(ord.PrimaryDesc)},
		{"SecondaryKey", reflect.ValueOf(ord.SecondaryKey)},
		{"SecondaryDesc", reflect.ValueOf(ord.SecondaryDesc)},
	}
	for _, a := range assignments {
		if err := setNamedField(target, a.name, a.value); err != nil {
			return err
		}
	}
	return nil
}

func setNamedField(target reflect.Value, name string, value reflect.Value) error {
	field := target.FieldByName(name)
	if !field.IsValid() {
		return fmt.Errorf("query struct %s has no field named %q", target.Type(), name)
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field %q on query struct", name)
	}

	switch field.Kind() {
	case reflect.Interface:
		field.Set(value)
		return nil
	case reflect.Ptr:
		elemType := field.Type().Elem()
		if !value.Type().ConvertibleTo(elemType) {
			return fmt.Errorf("field %q must be %s-compatible, got %s", name, elemType, value.Type())
		}
		if field.IsNil() {
			field.Set(reflect.New(elemType))
		}
		field.Elem().Set(value.Convert(elemType))
		return nil
	default:
		if !value.Type().ConvertibleTo(field.Type()) {
			return fmt.Errorf("field %q must be %s-compatible, got %s", name, field.Type(), value.Type())
		}
		field.Set(value.Convert(field.Type()))
		return nil
	}
}
