package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/audiohal/internal/logging"
	"github.com/smazurov/audiohal/pkg/coreaudio"
	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
	"github.com/smazurov/audiohal/pkg/coreaudio/simhal"
)

// DeviceSummary is one row of the device list.
type DeviceSummary struct {
	ID             uint32  `json:"id" yaml:"id" toml:"id"`
	UID            string  `json:"uid" yaml:"uid" toml:"uid"`
	Name           string  `json:"name" yaml:"name" toml:"name"`
	Manufacturer   string  `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty" toml:"manufacturer,omitempty"`
	Transport      string  `json:"transport" yaml:"transport" toml:"transport"`
	InputChannels  uint32  `json:"input_channels" yaml:"input_channels" toml:"input_channels"`
	OutputChannels uint32  `json:"output_channels" yaml:"output_channels" toml:"output_channels"`
	SampleRate     float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty" toml:"sample_rate,omitempty"`
	Default        string  `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
}

// ChannelState holds the level controls of one channel.
type ChannelState struct {
	Scope    string   `json:"scope" yaml:"scope" toml:"scope"`
	Channel  uint32   `json:"channel" yaml:"channel" toml:"channel"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Volume   *float32 `json:"volume,omitempty" yaml:"volume,omitempty" toml:"volume,omitempty"`
	Decibels *float32 `json:"decibels,omitempty" yaml:"decibels,omitempty" toml:"decibels,omitempty"`
	Muted    *bool    `json:"muted,omitempty" yaml:"muted,omitempty" toml:"muted,omitempty"`
}

// DeviceDetail describes a single device.
type DeviceDetail struct {
	DeviceSummary `yaml:",inline"`
	SampleRates   []float64      `json:"sample_rates,omitempty" yaml:"sample_rates,omitempty" toml:"sample_rates,omitempty"`
	ClockSource   string         `json:"clock_source,omitempty" yaml:"clock_source,omitempty" toml:"clock_source,omitempty"`
	HogModePID    int32          `json:"hog_mode_pid" yaml:"hog_mode_pid" toml:"hog_mode_pid"`
	Latency       uint32         `json:"output_latency" yaml:"output_latency" toml:"output_latency"`
	Channels      []ChannelState `json:"channels,omitempty" yaml:"channels,omitempty" toml:"channels,omitempty"`
}

// StreamSummary is one row of the stream list.
type StreamSummary struct {
	ID         uint32  `json:"id" yaml:"id" toml:"id"`
	Scope      string  `json:"scope" yaml:"scope" toml:"scope"`
	Terminal   string  `json:"terminal" yaml:"terminal" toml:"terminal"`
	Channels   uint32  `json:"channels" yaml:"channels" toml:"channels"`
	SampleRate float64 `json:"sample_rate" yaml:"sample_rate" toml:"sample_rate"`
	Bits       uint32  `json:"bits" yaml:"bits" toml:"bits"`
	Float      bool    `json:"float" yaml:"float" toml:"float"`
	Formats    int     `json:"formats" yaml:"formats" toml:"formats"`
}

// openRegistry starts a registry over a simulated HAL loaded from path, or
// over the null device when path is empty.
func openRegistry(path string, logger *slog.Logger) (*coreaudio.Registry, error) {
	fixture := simhal.Fixture{Devices: []simhal.DeviceSpec{simhal.NullDevice()}}
	if path != "" {
		f, err := simhal.LoadFixture(path)
		if err != nil {
			return nil, err
		}
		fixture = f
	}
	h, err := simhal.NewWithFixture(fixture)
	if err != nil {
		return nil, fmt.Errorf("build HAL: %w", err)
	}
	reg := coreaudio.NewRegistry(h, coreaudio.WithLogger(logger), coreaudio.WithSettleTimeout(2*time.Second))
	if err := reg.Start(); err != nil {
		return nil, fmt.Errorf("start registry: %w", err)
	}
	return reg, nil
}

func summarize(d *coreaudio.Device) DeviceSummary {
	s := DeviceSummary{ID: uint32(d.ID())}
	s.UID, _ = d.UID()
	s.Name, _ = d.Name()
	s.Manufacturer, _ = d.Manufacturer()
	transport, _ := d.TransportType()
	s.Transport = transport.String()
	s.InputChannels, _ = d.Channels(hal.ScopeInput)
	s.OutputChannels, _ = d.Channels(hal.ScopeOutput)
	s.SampleRate, _ = d.NominalSampleRate()

	var roles []string
	for _, role := range []coreaudio.DefaultRole{coreaudio.DefaultInput, coreaudio.DefaultOutput, coreaudio.DefaultSystemOutput} {
		if d.IsDefault(role) {
			roles = append(roles, role.String())
		}
	}
	s.Default = strings.Join(roles, ",")
	return s
}

func describe(d *coreaudio.Device) DeviceDetail {
	detail := DeviceDetail{DeviceSummary: summarize(d), HogModePID: hal.HogModeNoOwner}
	detail.SampleRates, _ = d.NominalSampleRates()
	detail.ClockSource, _ = d.ClockSourceName()
	if pid, ok := d.HogModePID(); ok {
		detail.HogModePID = pid
	}
	detail.Latency, _ = d.Latency(hal.ScopeOutput)

	for _, scope := range []hal.Scope{hal.ScopeOutput, hal.ScopeInput} {
		n, ok := d.Channels(scope)
		if !ok {
			continue
		}
		for ch := uint32(0); ch <= n; ch++ {
			state := ChannelState{Scope: scope.String(), Channel: ch}
			state.Name, _ = d.ElementName(ch, scope)
			if v, ok := d.Volume(ch, scope); ok {
				state.Volume = &v
			}
			if db, ok := d.VolumeInDecibels(ch, scope); ok {
				state.Decibels = &db
			}
			if m, ok := d.IsMuted(ch, scope); ok {
				state.Muted = &m
			}
			if state.Volume != nil || state.Muted != nil {
				detail.Channels = append(detail.Channels, state)
			}
		}
	}
	return detail
}

// CreateDevicesCmd creates the devices command and its subcommands.
func CreateDevicesCmd() *cobra.Command {
	var fixtures string
	var output string

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "Inspect audio devices",
		Long:  `Lists and describes the devices of a simulated HAL built from a fixture file, or of the null device when no fixture is given.`,
	}
	devicesCmd.PersistentFlags().StringVarP(&fixtures, "fixtures", "f", "", "Device fixture file (TOML)")
	devicesCmd.PersistentFlags().StringVarP(&output, "output", "o", FormatText, "Output format: text, json, yaml or toml")

	withRegistry := func(run func(cmd *cobra.Command, reg *coreaudio.Registry, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			// Keep stdout clean for structured output.
			logging.SetLevel("cli", "warn")
			reg, err := openRegistry(fixtures, logging.GetLogger("cli"))
			if err != nil {
				return err
			}
			defer reg.Stop()
			return run(cmd, reg, args)
		}
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List devices",
		Args:  cobra.NoArgs,
		RunE: withRegistry(func(cmd *cobra.Command, reg *coreaudio.Registry, _ []string) error {
			var list struct {
				Devices []DeviceSummary `json:"devices" yaml:"devices" toml:"devices"`
			}
			for _, d := range reg.Devices() {
				list.Devices = append(list.Devices, summarize(d))
			}
			return render(cmd.OutOrStdout(), output, list, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tUID\tNAME\tTRANSPORT\tIN\tOUT\tRATE\tDEFAULT")
				for _, d := range list.Devices {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
						d.ID, d.UID, d.Name, d.Transport, d.InputChannels, d.OutputChannels,
						strconv.FormatFloat(d.SampleRate, 'f', -1, 64), d.Default)
				}
				return tw.Flush()
			})
		}),
	}

	showCmd := &cobra.Command{
		Use:   "show [uid]",
		Short: "Describe one device",
		Args:  cobra.ExactArgs(1),
		RunE: withRegistry(func(cmd *cobra.Command, reg *coreaudio.Registry, args []string) error {
			d, ok := reg.DeviceByUID(args[0])
			if !ok {
				return fmt.Errorf("device %q not found", args[0])
			}
			detail := describe(d)
			return render(cmd.OutOrStdout(), output, detail, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "Name:\t%s\n", detail.Name)
				fmt.Fprintf(tw, "UID:\t%s\n", detail.UID)
				fmt.Fprintf(tw, "Manufacturer:\t%s\n", detail.Manufacturer)
				fmt.Fprintf(tw, "Transport:\t%s\n", detail.Transport)
				fmt.Fprintf(tw, "Channels:\t%d in, %d out\n", detail.InputChannels, detail.OutputChannels)
				fmt.Fprintf(tw, "Sample rate:\t%v of %v\n", detail.SampleRate, detail.SampleRates)
				if detail.ClockSource != "" {
					fmt.Fprintf(tw, "Clock source:\t%s\n", detail.ClockSource)
				}
				fmt.Fprintf(tw, "Hog mode:\t%d\n", detail.HogModePID)
				for _, ch := range detail.Channels {
					line := fmt.Sprintf("%s %d", ch.Scope, ch.Channel)
					if ch.Volume != nil {
						line += fmt.Sprintf("  volume %.2f", *ch.Volume)
					}
					if ch.Decibels != nil {
						line += fmt.Sprintf(" (%.1f dB)", *ch.Decibels)
					}
					if ch.Muted != nil && *ch.Muted {
						line += "  muted"
					}
					fmt.Fprintf(tw, "Control:\t%s\n", line)
				}
				return tw.Flush()
			})
		}),
	}

	streamsCmd := &cobra.Command{
		Use:   "streams [uid]",
		Short: "List the streams of a device",
		Args:  cobra.ExactArgs(1),
		RunE: withRegistry(func(cmd *cobra.Command, reg *coreaudio.Registry, args []string) error {
			d, ok := reg.DeviceByUID(args[0])
			if !ok {
				return fmt.Errorf("device %q not found", args[0])
			}
			var list struct {
				Streams []StreamSummary `json:"streams" yaml:"streams" toml:"streams"`
			}
			for _, scope := range []hal.Scope{hal.ScopeOutput, hal.ScopeInput} {
				streams, _ := d.Streams(scope)
				for _, st := range streams {
					s := StreamSummary{ID: uint32(st.ID()), Scope: scope.String()}
					terminal, _ := st.TerminalType()
					s.Terminal = terminal.String()
					if f, ok := st.VirtualFormat(); ok {
						s.Channels = f.ChannelsPerFrame
						s.SampleRate = f.SampleRate
						s.Bits = f.BitsPerChannel
						s.Float = f.FormatFlags&hal.FormatFlagIsFloat != 0
					}
					formats, _ := st.AvailablePhysicalFormats()
					s.Formats = len(formats)
					list.Streams = append(list.Streams, s)
				}
			}
			return render(cmd.OutOrStdout(), output, list, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSCOPE\tTERMINAL\tCHANNELS\tRATE\tBITS\tFORMATS")
				for _, s := range list.Streams {
					kind := "int"
					if s.Float {
						kind = "float"
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%v\t%d %s\t%d\n",
						s.ID, s.Scope, s.Terminal, s.Channels, s.SampleRate, s.Bits, kind, s.Formats)
				}
				return tw.Flush()
			})
		}),
	}

	devicesCmd.AddCommand(listCmd, showCmd, streamsCmd)
	return devicesCmd
}
