package models

// DeviceInfo summarises one audio device.
type DeviceInfo struct {
	ID                  uint32  `json:"id" example:"2" doc:"HAL object ID, valid until the device disappears"`
	UID                 string  `json:"uid" example:"NullAudioDevice_UID" doc:"Persistent device UID"`
	Name                string  `json:"name" example:"Null Audio Device"`
	Manufacturer        string  `json:"manufacturer,omitempty" example:"Apple Inc."`
	Transport           string  `json:"transport" example:"virtual"`
	InputChannels       uint32  `json:"input_channels" example:"2"`
	OutputChannels      uint32  `json:"output_channels" example:"2"`
	NominalSampleRate   float64 `json:"nominal_sample_rate,omitempty" example:"44100"`
	Aggregate           bool    `json:"aggregate"`
	Alive               bool    `json:"alive"`
	Running             bool    `json:"running"`
	Hidden              bool    `json:"hidden"`
	DefaultInput        bool    `json:"default_input"`
	DefaultOutput       bool    `json:"default_output"`
	DefaultSystemOutput bool    `json:"default_system_output"`
	HogModePID          int32   `json:"hog_mode_pid" example:"-1" doc:"Process holding exclusive access, -1 when free"`
}

// ClockSource is one selectable clock of a device.
type ClockSource struct {
	ID   uint32 `json:"id" example:"1"`
	Name string `json:"name" example:"Internal"`
}

// DeviceDetail extends DeviceInfo with timing and clock data.
type DeviceDetail struct {
	DeviceInfo
	ModelUID           string        `json:"model_uid,omitempty"`
	ActualSampleRate   float64       `json:"actual_sample_rate,omitempty" example:"44100"`
	NominalSampleRates []float64     `json:"nominal_sample_rates,omitempty" example:"[44100,48000]"`
	OutputLatency      uint32        `json:"output_latency" doc:"Frames"`
	InputLatency       uint32        `json:"input_latency" doc:"Frames"`
	BufferFrameSize    uint32        `json:"buffer_frame_size,omitempty"`
	ClockSources       []ClockSource `json:"clock_sources,omitempty"`
	ClockSourceID      *uint32       `json:"clock_source_id,omitempty"`
	SubDevices         []string      `json:"sub_devices,omitempty" doc:"UIDs of the devices an aggregate is built from"`
}

type DeviceListResponse struct {
	Body struct {
		Devices []DeviceInfo `json:"devices"`
		Count   int          `json:"count" example:"1"`
	}
}

type DeviceResponse struct {
	Body DeviceDetail
}

// Format is a stream data format.
type Format struct {
	SampleRate       float64 `json:"sample_rate" example:"44100"`
	FormatID         string  `json:"format_id" example:"lpcm"`
	ChannelsPerFrame uint32  `json:"channels_per_frame" example:"2"`
	BitsPerChannel   uint32  `json:"bits_per_channel" example:"32"`
	Float            bool    `json:"float"`
	Mixable          bool    `json:"mixable"`
}

// Stream describes one stream of a device.
type Stream struct {
	ID               uint32   `json:"id"`
	Name             string   `json:"name,omitempty"`
	Scope            string   `json:"scope" enum:"input,output"`
	Terminal         string   `json:"terminal" example:"speaker"`
	StartingChannel  uint32   `json:"starting_channel" example:"1"`
	Latency          uint32   `json:"latency"`
	Active           bool     `json:"active"`
	VirtualFormat    *Format  `json:"virtual_format,omitempty"`
	PhysicalFormat   *Format  `json:"physical_format,omitempty"`
	AvailableFormats []Format `json:"available_formats,omitempty" doc:"Physical formats valid at the current nominal sample rate"`
}

type StreamListResponse struct {
	Body struct {
		Streams []Stream `json:"streams"`
		Count   int      `json:"count"`
	}
}

type CreateAggregateRequest struct {
	Body struct {
		Name   string `json:"name" minLength:"1" example:"Studio + Mic"`
		UID    string `json:"uid" minLength:"1" example:"studio-mic-aggregate"`
		Main   string `json:"main" minLength:"1" doc:"UID of the main sub-device, which also provides the clock"`
		Second string `json:"second,omitempty" doc:"UID of an optional second sub-device"`
	}
}

type AggregateResponse struct {
	Body DeviceDetail
}
