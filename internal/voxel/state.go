package voxel

import (
	"fmt"
	"sort"
	"strings"
)

// BlockState is a canonical block state string: name[k=v,...] with
// properties sorted by key.
type BlockState string

const AirState BlockState = "minecraft:air"

func ParseBlockState(s string) (BlockState, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty block state")
	}
	name, props, err := splitState(s)
	if err != nil {
		return "", err
	}
	if !strings.Contains(name, ":") {
		name = "minecraft:" + name
	}
	return compose(name, props), nil
}

// MustState panics on malformed input. Used for constants and tests.
func MustState(s string) BlockState {
	st, err := ParseBlockState(s)
	if err != nil {
		panic(err)
	}
	return st
}

func (s BlockState) Name() string {
	name, _, _ := splitState(string(s))
	return name
}

func (s BlockState) IsAir() bool {
	switch s.Name() {
	case "", "minecraft:air", "minecraft:cave_air", "minecraft:void_air":
		return true
	}
	return false
}

func (s BlockState) Property(key string) (string, bool) {
	_, props, _ := splitState(string(s))
	v, ok := props[key]
	return v, ok
}

// With returns s with property key set to value.
func (s BlockState) With(key, value string) BlockState {
	name, props, _ := splitState(string(s))
	if props == nil {
		props = map[string]string{}
	}
	props[key] = value
	return compose(name, props)
}

func (s BlockState) Properties() map[string]string {
	_, props, _ := splitState(string(s))
	return props
}

func (s BlockState) String() string { return string(s) }

func splitState(s string) (string, map[string]string, error) {
	open := strings.IndexByte(s, '[')
	if open < 0 {
		return s, nil, nil
	}
	if !strings.HasSuffix(s, "]") {
		return "", nil, fmt.Errorf("invalid block state %q", s)
	}
	props := map[string]string{}
	body := s[open+1 : len(s)-1]
	if body != "" {
		for _, kv := range strings.Split(body, ",") {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return "", nil, fmt.Errorf("invalid block state property %q", kv)
			}
			props[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return s[:open], props, nil
}

func compose(name string, props map[string]string) BlockState {
	if len(props) == 0 {
		return BlockState(name)
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(props[k])
	}
	b.WriteByte(']')
	return BlockState(b.String())
}
