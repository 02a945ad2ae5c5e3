package mqtt

import (
	"strconv"
	"strings"
)

// Topics builds topic names under a prefix.
//
//	<prefix>/status
//	<prefix>/devices/<uid>
//	<prefix>/devices/<uid>/volume/<scope>/<channel>
//	<prefix>/devices/<uid>/volume/<scope>/<channel>/set
//	<prefix>/devices/<uid>/mute/<scope>/<channel>
//	<prefix>/devices/<uid>/mute/<scope>/<channel>/set
//	<prefix>/devices/<uid>/sample_rate
//	<prefix>/devices/<uid>/hog_mode
type Topics struct {
	Prefix string
}

// Status is the retained online/offline topic.
func (t Topics) Status() string { return t.Prefix + "/status" }

// Device is the retained presence topic of a device.
func (t Topics) Device(uid string) string {
	return t.Prefix + "/devices/" + Escape(uid)
}

// Volume is the retained scalar volume of one channel.
func (t Topics) Volume(uid, scope string, channel uint32) string {
	return t.Device(uid) + "/volume/" + scope + "/" + strconv.FormatUint(uint64(channel), 10)
}

// Mute is the retained mute state of one channel.
func (t Topics) Mute(uid, scope string, channel uint32) string {
	return t.Device(uid) + "/mute/" + scope + "/" + strconv.FormatUint(uint64(channel), 10)
}

// SampleRate is the retained sample rate state of a device.
func (t Topics) SampleRate(uid string) string { return t.Device(uid) + "/sample_rate" }

// HogMode is the retained hog mode owner of a device.
func (t Topics) HogMode(uid string) string { return t.Device(uid) + "/hog_mode" }

// VolumeCommands matches every volume set topic.
func (t Topics) VolumeCommands() string { return t.Prefix + "/devices/+/volume/+/+/set" }

// MuteCommands matches every mute set topic.
func (t Topics) MuteCommands() string { return t.Prefix + "/devices/+/mute/+/+/set" }

// Command is a parsed set topic.
type Command struct {
	UID     string // escaped UID as it appears in the topic
	Control string // "volume" or "mute"
	Scope   string
	Channel uint32
}

// ParseCommand splits <prefix>/devices/<uid>/<control>/<scope>/<channel>/set.
func (t Topics) ParseCommand(topic string) (Command, bool) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/devices/")
	if !ok {
		return Command{}, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 5 || parts[4] != "set" {
		return Command{}, false
	}
	ch, err := strconv.ParseUint(parts[3], 10, 32)
	if err != nil {
		return Command{}, false
	}
	switch parts[1] {
	case "volume", "mute":
	default:
		return Command{}, false
	}
	return Command{UID: parts[0], Control: parts[1], Scope: parts[2], Channel: uint32(ch)}, true
}

var escaper = strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_")

// Escape makes a UID safe as a single topic level.
func Escape(uid string) string {
	return escaper.Replace(uid)
}
