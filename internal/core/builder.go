package core

import (
	"fmt"

	"roverctl/config"
	"roverctl/internal/command"
	"roverctl/internal/metrics"
	"roverctl/internal/retry"
	"roverctl/internal/transport"
	"roverctl/tunnel"
	"roverctl/util"
)

// Build constructs the Mode selected by cfg.  cfg must already be
// resolved and validated.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	address, err := util.ResolveAddr(cfg.Host, cfg.Port, cfg.NoDNS)
	if err != nil {
		return nil, err
	}

	dialer, err := buildDialer(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.DryRun {
		return &DryRunMode{
			Dialer:  dialer,
			Address: address,
			Summary: describe(cfg),
		}, nil
	}

	var backoff *retry.Backoff
	if cfg.Retries > 0 {
		backoff = retry.Attempts(cfg.Retries, cfg.RetryDelay)
	}

	return &ConnectMode{
		Dialer:       dialer,
		Network:      "tcp",
		Address:      address,
		Logger:       logger,
		Metrics:      metrics.New(),
		Retry:        backoff,
		Mapper:       buildMapper(cfg),
		Prompt:       cfg.Prompt,
		PromptParams: cfg.PromptParams,
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer stacks TLS on top of a TCP or SSH-forwarded stream.
func buildDialer(cfg *config.Config, logger *util.Logger) (transport.Dialer, error) {
	var base transport.Dialer = &transport.TCPDialer{Timeout: cfg.Timeout}
	if cfg.SSH.Enabled() {
		base = transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.SSH.User,
			Host:          cfg.SSH.Host,
			Port:          cfg.SSH.Port,
			KeyPath:       cfg.SSH.KeyPath,
			PromptPass:    cfg.SSH.Password,
			UseAgent:      cfg.SSH.Agent,
			StrictHostKey: cfg.SSH.StrictHostKey,
			KnownHosts:    cfg.SSH.KnownHosts,
			ConnTimeout:   cfg.Timeout,
			KeepAlive:     cfg.SSH.KeepAlive,
		}, logger)
	}

	if cfg.TLS.Plain {
		logger.Warn("TLS disabled; commands go to the controller in the clear")
		return base, nil
	}
	if cfg.TLS.InsecureSkipVerify {
		logger.Warn("controller certificate will not be verified")
	}

	tlsCfg, err := cfg.TLS.Options().ClientConfig()
	if err != nil {
		base.Close()
		return nil, err
	}
	return &transport.TLSDialer{Base: base, Config: tlsCfg, Timeout: cfg.Timeout}, nil
}

func buildMapper(cfg *config.Config) *command.Mapper {
	return &command.Mapper{
		Defaults: command.Drive{
			Distance:  int32(cfg.Drive.Distance),
			Power:     int32(cfg.Drive.Power),
			Angle:     int32(cfg.Drive.Angle),
			TurnPower: int32(cfg.Drive.TurnPower),
		},
		Inline: cfg.InlineParams,
	}
}

// describe summarises the resolved configuration for --dry-run.
func describe(cfg *config.Config) []string {
	out := []string{fmt.Sprintf("controller: %s", util.FormatAddr(cfg.Host, cfg.Port))}

	switch {
	case cfg.TLS.Plain:
		out = append(out, "tls: disabled")
	case cfg.TLS.InsecureSkipVerify:
		out = append(out, "tls: enabled, certificate not verified")
	default:
		s := "tls: ca " + cfg.TLS.CAFile
		if cfg.TLS.CertFile != "" {
			s += ", client certificate " + cfg.TLS.CertFile
		}
		if cfg.TLS.ServerName != "" {
			s += ", server name " + cfg.TLS.ServerName
		}
		out = append(out, s)
	}

	if cfg.SSH.Enabled() {
		out = append(out, fmt.Sprintf("jump host: %s", cfg.SSH.Jump))
	}
	out = append(out,
		fmt.Sprintf("timeout: %s, retries: %d", cfg.Timeout, cfg.Retries),
		fmt.Sprintf("drive: distance %dcm power %d%%, angle %d° power %d%%",
			cfg.Drive.Distance, cfg.Drive.Power, cfg.Drive.Angle, cfg.Drive.TurnPower),
	)
	return out
}
