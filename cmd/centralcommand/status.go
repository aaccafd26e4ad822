// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/unitystation/centralcommand/internal/observability"
)

// ProbeStatus is the result of one health probe.
type ProbeStatus struct {
	Probe      string `json:"probe"`
	URL        string `json:"url"`
	Healthy    bool   `json:"healthy"`
	StatusCode int    `json:"status_code,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	addr       string
	jsonOutput bool
	timeout    time.Duration
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health of a running server",
		Long: `Query the liveness and readiness probes of a running server. The
probes are read from --addr, or from metrics.addr of the configuration.
The exit status is 1 when the server is not ready.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.addr == "" {
				loaded, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				cfg.addr = loaded.Metrics.Addr
			}
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.addr, "addr", "", "observability address of the server (default: metrics.addr)")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", 3*time.Second, "timeout per probe")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	if cfg.addr == "" {
		return oops.Code("STATUS_NO_ADDR").Errorf("metrics.addr is empty; pass --addr")
	}
	base := probeBaseURL(cfg.addr)
	client := &http.Client{Timeout: cfg.timeout}

	statuses := []ProbeStatus{
		queryProbe(client, "liveness", base+observability.LivenessPath),
		queryProbe(client, "readiness", base+observability.ReadinessPath),
	}

	if cfg.jsonOutput {
		output, err := formatStatusJSON(statuses)
		if err != nil {
			return err
		}
		cmd.Println(output)
	} else {
		cmd.Print(formatStatusTable(statuses))
	}

	if !statuses[1].Healthy {
		return oops.Code("SERVICE_NOT_READY").With("addr", cfg.addr).Errorf("server is not ready")
	}
	return nil
}

// probeBaseURL turns a listen address such as ":9100" into a URL a
// client can reach.
func probeBaseURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimSuffix(addr, "/")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// queryProbe fetches url and reports it healthy on a 200 response.
func queryProbe(client *http.Client, probe, url string) ProbeStatus {
	status := ProbeStatus{Probe: probe, URL: url}

	resp, err := client.Get(url) //nolint:noctx // the client timeout bounds the request
	if err != nil {
		status.Detail = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024)) //nolint:errcheck // detail is best effort
	status.StatusCode = resp.StatusCode
	status.Healthy = resp.StatusCode == http.StatusOK
	status.Detail = strings.TrimSpace(string(body))
	return status
}

// formatStatusTable formats the probes as a human-readable table.
func formatStatusTable(statuses []ProbeStatus) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "PROBE\tSTATUS\tCODE\tDETAIL")
	_, _ = fmt.Fprintln(w, "-----\t------\t----\t------")
	for _, s := range statuses {
		state := "unhealthy"
		if s.Healthy {
			state = "healthy"
		}
		code := "-"
		if s.StatusCode != 0 {
			code = fmt.Sprintf("%d", s.StatusCode)
		}
		detail := s.Detail
		if detail == "" {
			detail = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Probe, state, code, detail)
	}

	_ = w.Flush()
	return b.String()
}

// formatStatusJSON formats the probes as JSON.
func formatStatusJSON(statuses []ProbeStatus) (string, error) {
	data, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return "", oops.Code("STATUS_ENCODE_FAILED").Wrap(err)
	}
	return string(data), nil
}
