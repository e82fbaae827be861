//go:build windows

// Package ntfs implements backend.Backend against the real Windows NTFS
// APIs: volume enumeration, an FSCTL_ENUM_USN_DATA bulk MFT scan, and an
// FSCTL_READ_USN_JOURNAL polling watcher.
//
// https://learn.microsoft.com/en-us/windows/win32/api/winioctl/ni-winioctl-fsctl_enum_usn_data
// https://learn.microsoft.com/en-us/windows/win32/api/winioctl/ni-winioctl-fsctl_query_usn_journal
// https://learn.microsoft.com/en-us/windows/win32/api/winioctl/ni-winioctl-fsctl_read_usn_journal
package ntfs

const (
	fsctlEnumUsnData       = 0x000900B3
	fsctlQueryUsnJournal   = 0x000900F4
	fsctlReadUsnJournal    = 0x000900BB
	fsctlGetNtfsVolumeData = 0x00090064

	maxRecordBufferSize = 64 * 1024

	usnReasonDataOverwrite  = 0x00000001
	usnReasonDataExtend     = 0x00000002
	usnReasonDataTruncation = 0x00000004
	usnReasonFileCreate     = 0x00000100
	usnReasonFileDelete     = 0x00000200
	usnReasonRenameOldName  = 0x00001000
	usnReasonRenameNewName  = 0x00002000
	usnReasonClose          = 0x80000000

	fileAttributeDirectory = 0x10

	// usnRecordReasonMask is the combination of reasons the journal
	// watcher asks the kernel to report.
	usnRecordReasonMask = usnReasonFileCreate | usnReasonFileDelete | usnReasonRenameNewName |
		usnReasonDataOverwrite | usnReasonDataExtend | usnReasonDataTruncation | usnReasonClose

	driveFixed = 3 // GetDriveTypeW result for a fixed disk
)

// fileReferenceMask extracts the low 48 bits of a 64-bit file reference
// number. NTFS stores a 16-bit sequence number in the upper bits; two
// generations of the same MFT slot share the low 48 bits, so higher
// layers must not rely on them for uniqueness across deletes, only the
// full 64-bit field does that. FileId intentionally keeps only the low
// 48 bits to match what a v2 record already exposes.
const fileReferenceMask = 0x0000FFFFFFFFFFFF
