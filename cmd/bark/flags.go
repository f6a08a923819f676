package main

import (
	"fmt"
	"strings"

	"github.com/kylerbrown/bark/meta"
)

// stringList collects comma separated or repeated flag values.
type stringList []string

func (l *stringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*l = append(*l, v)
		}
	}
	return nil
}

// attrsFlag collects KEY=VALUE pairs.
type attrsFlag meta.Attrs

func (a *attrsFlag) String() string {
	if a == nil || *a == nil {
		return ""
	}
	pairs := make([]string, 0, len(*a))
	for k, v := range *a {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(pairs, ",")
}

func (a *attrsFlag) Set(value string) error {
	kv := strings.SplitN(value, "=", 2)
	if len(kv) != 2 || kv[0] == "" {
		return fmt.Errorf("attribute %q is not in KEY=VALUE form", value)
	}
	if *a == nil {
		*a = attrsFlag{}
	}
	(*a)[kv[0]] = kv[1]
	return nil
}

func (a attrsFlag) attrs() meta.Attrs {
	return meta.Attrs(a)
}
