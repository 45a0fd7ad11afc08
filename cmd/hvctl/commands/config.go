package commands

import (
	"fmt"
	"io"

	"hvctl/pkg/hv"
)

// RunConfigShow prints the connection profile commands would use.
func RunConfigShow(w io.Writer, cfg hv.ConnConfig) error {
	fmt.Fprintf(w, "system=%s\n", cfg.System)
	fmt.Fprintf(w, "link=%s\n", cfg.Link)
	fmt.Fprintf(w, "host=%s\n", cfg.Host)
	fmt.Fprintf(w, "user=%s\n", cfg.Username)
	if cfg.Password != "" {
		fmt.Fprintln(w, "pass=********")
	} else {
		fmt.Fprintln(w, "pass=")
	}
	return nil
}

// RunConfigSet stores cfg as the default connection profile.
func RunConfigSet(w io.Writer, store *hv.Store, cfg hv.ConnConfig) error {
	if err := store.SetConnConfig(cfg); err != nil {
		return err
	}
	fmt.Fprintf(w, "Saved profile %s via %s at %s\n", cfg.System, cfg.Link, cfg.Host)
	return nil
}
