package models

// VolumeData reports the volume and mute state of one channel.
type VolumeData struct {
	UID          string   `json:"uid"`
	Scope        string   `json:"scope" enum:"input,output"`
	Channel      uint32   `json:"channel" doc:"0 is the main channel"`
	Volume       *float32 `json:"volume,omitempty" minimum:"0" maximum:"1"`
	Decibels     *float32 `json:"decibels,omitempty"`
	Muted        *bool    `json:"muted,omitempty"`
	CanSetVolume bool     `json:"can_set_volume"`
	CanMute      bool     `json:"can_mute"`
	Virtual      bool     `json:"virtual" doc:"Values are the virtual main volume over the stereo pair"`
	Balance      *float32 `json:"balance,omitempty" doc:"Virtual main balance, 0 left to 1 right"`
}

type VolumeResponse struct {
	Body VolumeData
}

type SetVolumeBody struct {
	Scope    string   `json:"scope,omitempty" enum:"input,output" default:"output"`
	Channel  uint32   `json:"channel,omitempty"`
	Volume   *float32 `json:"volume,omitempty" minimum:"0" maximum:"1" doc:"Scalar volume"`
	Decibels *float32 `json:"decibels,omitempty" doc:"Volume in dB, converted with the channel's curve"`
	Virtual  bool     `json:"virtual,omitempty" doc:"Set the virtual main volume instead of one channel"`
	Balance  *float32 `json:"balance,omitempty" minimum:"0" maximum:"1" doc:"Virtual main balance"`
}

type SetMuteBody struct {
	Scope   string `json:"scope,omitempty" enum:"input,output" default:"output"`
	Channel uint32 `json:"channel,omitempty"`
	Muted   bool   `json:"muted"`
}

// StereoPairData is the preferred stereo channel mapping of a scope.
type StereoPairData struct {
	Scope string `json:"scope,omitempty" enum:"input,output" default:"output"`
	Left  uint32 `json:"left" minimum:"1" example:"1"`
	Right uint32 `json:"right" minimum:"1" example:"2"`
}

type StereoPairResponse struct {
	Body StereoPairData
}

// SampleRateData reports the nominal and actual sample rate.
type SampleRateData struct {
	UID       string    `json:"uid"`
	Nominal   float64   `json:"nominal" example:"48000"`
	Actual    float64   `json:"actual,omitempty" example:"48000"`
	Available []float64 `json:"available,omitempty" example:"[44100,48000]"`
	Settled   bool      `json:"settled" doc:"Actual rate matches nominal within 1 Hz"`
}

type SampleRateResponse struct {
	Body SampleRateData
}

type SetSampleRateBody struct {
	Rate float64 `json:"rate" exclusiveMinimum:"0" example:"48000"`
	Wait bool    `json:"wait,omitempty" doc:"Block until the actual rate follows or the settle timeout passes"`
}

type SetClockSourceBody struct {
	ID uint32 `json:"id" example:"2"`
}

type ClockSourceResponse struct {
	Body struct {
		ID   uint32 `json:"id"`
		Name string `json:"name,omitempty"`
	}
}

// HogModeData reports the owner of a device's exclusive access.
type HogModeData struct {
	UID   string `json:"uid"`
	PID   int32  `json:"pid" example:"-1"`
	Owned bool   `json:"owned" doc:"This process holds the device"`
}

type HogModeResponse struct {
	Body HogModeData
}
