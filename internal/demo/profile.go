package demo

import (
	"strings"

	"github.com/pkg/profile"
	"github.com/rotisserie/eris"
)

// Profiling modes accepted by NEXUS_DEMO_PROFILE.
const (
	ProfileNone   = ""
	ProfileCPU    = "cpu"
	ProfileMem    = "mem"
	ProfileAllocs = "allocs"
	ProfileTrace  = "trace"
)

// profileMode returns the profile option for a mode name. The empty mode returns nil.
func profileMode(mode string) (func(*profile.Profile), error) {
	switch strings.ToLower(mode) {
	case ProfileNone:
		return nil, nil
	case ProfileCPU:
		return profile.CPUProfile, nil
	case ProfileMem:
		return profile.MemProfile, nil
	case ProfileAllocs:
		return profile.MemProfileAllocs, nil
	case ProfileTrace:
		return profile.TraceProfile, nil
	default:
		return nil, eris.Errorf("invalid profile mode: %s (must be 'cpu', 'mem', 'allocs' or 'trace')", mode)
	}
}

// StartProfile starts the profiler configured by cfg and returns the function that stops it and
// writes the profile. It is a no-op when profiling is disabled.
func StartProfile(cfg Config) (stop func(), err error) {
	mode, err := profileMode(cfg.Profile)
	if err != nil {
		return nil, err
	}
	if mode == nil {
		return func() {}, nil
	}

	p := profile.Start(mode, profile.ProfilePath(cfg.ProfilePath), profile.NoShutdownHook, profile.Quiet)
	return p.Stop, nil
}
