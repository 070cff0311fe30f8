package meta

// FileName is the metadata file stored in every position directory.
const FileName = "metadata.txt"

// KeySummary maps to the dataset-wide summary document inside a metadata file.
const KeySummary = "Summary"

// Version is the format revision written to SummaryVersion. It must stay
// below 10: readers of revision 10+ expect metadata embedded in the TIFF
// info field, which this library does not write.
const Version = 9

// Summary document tags.
const (
	SummaryPrefix        = "Prefix"
	SummarySource        = "Source"
	SummaryVersion       = "MetadataVersion"
	SummaryUUID          = "UUID"
	SummaryChannels      = "Channels"
	SummarySlices        = "Slices"
	SummaryFrames        = "Frames"
	SummaryPositions     = "Positions"
	SummaryChannelNames  = "ChNames"
	SummaryChannelColors = "ChColors"
	SummaryWidth         = "Width"
	SummaryHeight        = "Height"
	SummaryPixelType     = "PixelType"
	SummaryPixelSize     = "PixelSize_um"
	SummaryBitDepth      = "BitDepth"
	SummaryPixelAspect   = "PixelAspect"
	SummaryNumComponents = "NumComponents"
	SummaryTimeFirst     = "TimeFirst"
	SummarySlicesFirst   = "SlicesFirst"
	SummaryComputerName  = "ComputerName"
	SummaryUserName      = "UserName"
	SummaryTime          = "Time"
)

// Per-frame document tags.
const (
	ImageWidth        = "Width"
	ImageHeight       = "Height"
	ImageChannelName  = "Channel"
	ImageFrame        = "Frame"
	ImageSlice        = "Slice"
	ImageChannelIndex = "ChannelIndex"
	ImageSliceIndex   = "SliceIndex"
	ImageFrameIndex   = "FrameIndex"
	ImagePosName      = "PositionName"
	ImagePosIndex     = "PositionIndex"
	ImageXUm          = "XPositionUm"
	ImageYUm          = "YPositionUm"
	ImageZUm          = "ZPositionUm"
	ImageFileName     = "FileName"
	ImageElapsedTime  = "ElapsedTime-ms"
)
