/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package config loads and validates the socket/cluster/HTTP server
// settings the rest of this module needs, the ambient stack
// SPEC_FULL.md §2 adds: `spf13/viper` for file loading,
// `go-playground/validator` for struct-tag validation (the teacher's own
// config-validation style), and `fsnotify` for hot reload.
package config

import (
	"path/filepath"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/boazsegev/facil-go/http1"
)

var validate = validatorv10.New()

// SocketConfig configures the listening/dialing side of the socket
// layer (spec.md §4.B).
type SocketConfig struct {
	Network string `mapstructure:"network" validate:"required,oneof=tcp tcp4 tcp6 unix"`
	Addr    string `mapstructure:"addr" validate:"required"`
}

// ClusterConfig configures the inter-process bus (spec.md §4.E).
type ClusterConfig struct {
	Enabled bool `mapstructure:"enabled"`
	RootPID int  `mapstructure:"root_pid" validate:"required_if=Enabled true"`
}

// HTTPConfig configures the HTTP/1.1 parser's limits (spec.md §4.G).
type HTTPConfig struct {
	MaxHeaderBytes int   `mapstructure:"max_header_bytes" validate:"gte=0"`
	MaxHeaderCount int   `mapstructure:"max_header_count" validate:"gte=0"`
	MaxBodyBytes   int64 `mapstructure:"max_body_bytes" validate:"gte=0"`
}

// Limits converts HTTPConfig into the shape http1.Parser consumes; zero
// fields fall back to http1.DefaultLimits()'s values.
func (c HTTPConfig) Limits() http1.Limits {
	lim := http1.DefaultLimits()
	if c.MaxHeaderBytes > 0 {
		lim.MaxHeaderBytes = c.MaxHeaderBytes
	}
	if c.MaxHeaderCount > 0 {
		lim.MaxHeaderCount = c.MaxHeaderCount
	}
	if c.MaxBodyBytes > 0 {
		lim.MaxBodyBytes = c.MaxBodyBytes
	}
	return lim
}

// Config is the top-level document Load/Watch operate on.
type Config struct {
	Socket  SocketConfig  `mapstructure:"socket" validate:"required"`
	Cluster ClusterConfig `mapstructure:"cluster"`
	HTTP    HTTPConfig    `mapstructure:"http"`
}

// Load reads path (any format viper supports: yaml/json/toml/...),
// unmarshals it into a Config, and validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate re-runs struct-tag validation on an already-built Config, the
// entry point Watch uses after a reload so a malformed edit is reported
// instead of silently adopted.
func Validate(cfg *Config) error {
	return validate.Struct(cfg)
}

func watchedPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
