package hal

// Object properties.
var (
	PropertyClassID      = Selector(FourCC("clas"))
	PropertyOwner        = Selector(FourCC("stdv"))
	PropertyName         = Selector(FourCC("lnam"))
	PropertyManufacturer = Selector(FourCC("lmak"))
	PropertyElementName  = Selector(FourCC("lchn"))
	PropertyOwnedObjects = Selector(FourCC("ownd"))
	PropertyControlList  = Selector(FourCC("ctrl"))
)

// System object properties.
var (
	PropertyDevices                   = Selector(FourCC("dev#"))
	PropertyDefaultInputDevice        = Selector(FourCC("dIn "))
	PropertyDefaultOutputDevice       = Selector(FourCC("dOut"))
	PropertyDefaultSystemOutputDevice = Selector(FourCC("sOut"))
)

// Device properties.
var (
	PropertyDeviceUID                   = Selector(FourCC("uid "))
	PropertyModelUID                    = Selector(FourCC("muid"))
	PropertyConfigurationApplication    = Selector(FourCC("capp"))
	PropertyTransportType               = Selector(FourCC("tran"))
	PropertyRelatedDevices              = Selector(FourCC("akin"))
	PropertyIsHidden                    = Selector(FourCC("hidn"))
	PropertyDeviceIsAlive               = Selector(FourCC("livn"))
	PropertyDeviceIsRunning             = Selector(FourCC("goin"))
	PropertyDeviceIsRunningSomewhere    = Selector(FourCC("gone"))
	PropertyJackIsConnected             = Selector(FourCC("jack"))
	PropertyLatency                     = Selector(FourCC("ltnc"))
	PropertySafetyOffset                = Selector(FourCC("saft"))
	PropertyBufferFrameSize             = Selector(FourCC("fsiz"))
	PropertyBufferFrameSizeRange        = Selector(FourCC("fsz#"))
	PropertyStreams                     = Selector(FourCC("stm#"))
	PropertyStreamConfiguration         = Selector(FourCC("slay"))
	PropertyPreferredChannelLayout      = Selector(FourCC("srnd"))
	PropertyPreferredChannelsForStereo  = Selector(FourCC("dch2"))
	PropertyNominalSampleRate           = Selector(FourCC("nsrt"))
	PropertyAvailableNominalSampleRates = Selector(FourCC("nsr#"))
	PropertyActualSampleRate            = Selector(FourCC("asrt"))
	PropertyHogMode                     = Selector(FourCC("oink"))
	PropertyClockSource                 = Selector(FourCC("csrc"))
	PropertyClockSources                = Selector(FourCC("csc#"))
	PropertyClockSourceNameForID        = Selector(FourCC("lcsn"))
	PropertyDataSource                  = Selector(FourCC("ssrc"))
	PropertyDataSources                 = Selector(FourCC("ssc#"))
	PropertyDataSourceNameForID         = Selector(FourCC("lscn"))
)

// Level control properties, addressed per channel.
var (
	PropertyVolumeScalar           = Selector(FourCC("volm"))
	PropertyVolumeDecibels         = Selector(FourCC("vold"))
	PropertyVolumeRangeDecibels    = Selector(FourCC("vdb#"))
	PropertyVolumeScalarToDecibels = Selector(FourCC("v2db"))
	PropertyVolumeDecibelsToScalar = Selector(FourCC("db2v"))
	PropertyMute                   = Selector(FourCC("mute"))
	PropertyPlayThru               = Selector(FourCC("thru"))
	PropertySubVolumeScalar        = Selector(FourCC("svlm"))
	PropertySubVolumeDecibels      = Selector(FourCC("svld"))
	PropertySubMute                = Selector(FourCC("smut"))
	PropertyDriverShouldOwniSub    = Selector(FourCC("isub"))
	PropertyVirtualMainVolume      = Selector(FourCC("vmvc"))
	PropertyVirtualMainBalance     = Selector(FourCC("vmbc"))
)

// Stream properties.
var (
	PropertyStreamIsActive                = Selector(FourCC("sact"))
	PropertyStreamDirection               = Selector(FourCC("sdir"))
	PropertyStreamTerminalType            = Selector(FourCC("term"))
	PropertyStreamStartingChannel         = Selector(FourCC("schn"))
	PropertyStreamVirtualFormat           = Selector(FourCC("sfmt"))
	PropertyStreamAvailableVirtualFormats = Selector(FourCC("sfma"))
	PropertyStreamPhysicalFormat          = Selector(FourCC("pft "))
	PropertyStreamAvailablePhysicalFormat = Selector(FourCC("pfta"))
)

// Class identifiers reported by PropertyClassID.
var (
	ClassSystem          = FourCC("asys")
	ClassDevice          = FourCC("adev")
	ClassAggregateDevice = FourCC("aagg")
	ClassStream          = FourCC("astr")
	ClassControl         = FourCC("actl")
)

// HogModeNoOwner is the hog mode PID when no process holds the device.
const HogModeNoOwner int32 = -1

// Transport type codes reported by PropertyTransportType.
var (
	TransportBuiltIn     = FourCC("bltn")
	TransportAggregate   = FourCC("grup")
	TransportVirtual     = FourCC("virt")
	TransportPCI         = FourCC("pci ")
	TransportUSB         = FourCC("usb ")
	TransportFireWire    = FourCC("1394")
	TransportBluetooth   = FourCC("blue")
	TransportBluetoothLE = FourCC("blea")
	TransportHDMI        = FourCC("hdmi")
	TransportDisplayPort = FourCC("dprt")
	TransportAirPlay     = FourCC("airp")
	TransportAVB         = FourCC("eavb")
	TransportThunderbolt = FourCC("thun")
)

// Terminal type codes reported by PropertyStreamTerminalType.
var (
	TerminalLine                  = FourCC("line")
	TerminalDigitalAudioInterface = FourCC("spdf")
	TerminalSpeaker               = FourCC("spkr")
	TerminalHeadphones            = FourCC("hdph")
	TerminalLFESpeaker            = FourCC("lfes")
	TerminalReceiverSpeaker       = FourCC("rspk")
	TerminalMicrophone            = FourCC("micr")
	TerminalHeadsetMicrophone     = FourCC("hmic")
	TerminalReceiverMicrophone    = FourCC("rmic")
	TerminalTTY                   = FourCC("tty_")
	TerminalHDMI                  = FourCC("hdmi")
	TerminalDisplayPort           = FourCC("dprt")
)

// Stream directions reported by PropertyStreamDirection.
const (
	DirectionOutput uint32 = 0
	DirectionInput  uint32 = 1
)
