/*
Copyright 2014-2017 Bo Blanton

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
 little helper to pull typed "options" out of a map[string]interface{}
*/

package options

import (
	"fmt"
	"time"
)

type Options map[string]interface{}

func New() Options {
	return Options(make(map[string]interface{}))
}

func (o *Options) get(name string) (interface{}, bool) {
	c := map[string]interface{}(*o)
	gots, ok := c[name]
	return gots, ok
}

func (o *Options) Set(name string, val interface{}) {
	c := map[string]interface{}(*o)
	c[name] = val
}

func (o *Options) String(name, def string) string {
	got, ok := o.get(name)
	if ok {
		return got.(string)
	}
	return def
}

func (o *Options) StringRequired(name string) (string, error) {
	got, ok := o.get(name)
	if ok {
		return got.(string), nil
	}
	return "", fmt.Errorf("%s is required", name)
}

func (o *Options) Bool(name string, def bool) bool {
	got, ok := o.get(name)
	if ok {
		return got.(bool)
	}
	return def
}

func (o *Options) BoolRequired(name string) (bool, error) {
	got, ok := o.get(name)
	if ok {
		return got.(bool), nil
	}
	return false, fmt.Errorf("%s is required", name)
}

func (o *Options) Int64Required(name string) (int64, error) {
	_, ok := o.get(name)
	if ok {
		return o.Int64(name, 0), nil
	}
	return 0, fmt.Errorf("%s is required", name)
}

func (o *Options) Float64Required(name string) (float64, error) {
	_, ok := o.get(name)
	if ok {
		return o.Float64(name, 0), nil
	}
	return 0, fmt.Errorf("%s is required", name)
}

func (o *Options) Int64(name string, def int64) int64 {
	got, ok := o.get(name)
	if !ok {
		return def
	}
	switch tt := got.(type) {
	case int64:
		return tt
	case int:
		return int64(tt)
	case int8:
		return int64(tt)
	case int16:
		return int64(tt)
	case int32:
		return int64(tt)
	case uint8:
		return int64(tt)
	case uint16:
		return int64(tt)
	case uint32:
		return int64(tt)
	case uint64:
		return int64(tt)
	case float32:
		return int64(tt)
	case float64:
		return int64(tt)
	}
	return def
}

func (o *Options) Float64(name string, def float64) float64 {
	got, ok := o.get(name)
	if !ok {
		return def
	}
	switch tt := got.(type) {
	case float64:
		return tt
	case float32:
		return float64(tt)
	case int64:
		return float64(tt)
	case int:
		return float64(tt)
	}
	return def
}

func (o *Options) Duration(name string, def time.Duration) time.Duration {
	got, ok := o.get(name)
	if !ok {
		return def
	}
	switch tt := got.(type) {
	case time.Duration:
		return tt
	case string:
		dur, err := time.ParseDuration(tt)
		if err == nil {
			return dur
		}
	case int64:
		return time.Duration(tt)
	}
	return def
}
