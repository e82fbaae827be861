//go:build windows

package ntfs

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sys/windows"

	"github.com/padiauj/glint/internal/glinterrors"
	"github.com/padiauj/glint/internal/types"
)

// Backend implements backend.Backend against real NTFS volumes.
type Backend struct{}

// New constructs an ntfs.Backend.
func New() *Backend { return &Backend{} }

func (b *Backend) Name() string { return "ntfs-usn" }

// ListVolumes iterates every volume GUID path on the host, resolves its
// first drive-letter mount point, and admits only fixed NTFS volumes.
func (b *Backend) ListVolumes(ctx context.Context) ([]types.VolumeDescriptor, error) {
	var volumes []types.VolumeDescriptor

	var nameBuf [windows.MAX_PATH]uint16
	handle, err := windows.FindFirstVolume(&nameBuf[0], uint32(len(nameBuf)))
	if err != nil {
		return nil, &glinterrors.FilesystemError{Operation: "FindFirstVolume", Reason: err.Error()}
	}
	defer windows.FindVolumeClose(handle)

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		guidPath := windows.UTF16ToString(nameBuf[:])
		if desc, ok, err := describeVolume(guidPath); err != nil {
			return nil, err
		} else if ok {
			volumes = append(volumes, desc)
		}

		err := windows.FindNextVolume(handle, &nameBuf[0], uint32(len(nameBuf)))
		if err != nil {
			if err == windows.ERROR_NO_MORE_FILES {
				break
			}
			return nil, &glinterrors.FilesystemError{Operation: "FindNextVolume", Reason: err.Error()}
		}
	}

	return volumes, nil
}

func describeVolume(guidPath string) (types.VolumeDescriptor, bool, error) {
	mount, ok, err := firstMountPoint(guidPath)
	if err != nil || !ok {
		return types.VolumeDescriptor{}, false, err
	}

	driveType := windows.GetDriveType(windows.StringToUTF16Ptr(mount))
	if driveType != driveFixed {
		return types.VolumeDescriptor{}, false, nil
	}

	var volumeNameBuf [windows.MAX_PATH]uint16
	var fsNameBuf [windows.MAX_PATH]uint16
	var serial, maxComponentLen, fsFlags uint32
	mountPtr := windows.StringToUTF16Ptr(mount)
	err = windows.GetVolumeInformation(
		mountPtr,
		&volumeNameBuf[0], uint32(len(volumeNameBuf)),
		&serial,
		&maxComponentLen,
		&fsFlags,
		&fsNameBuf[0], uint32(len(fsNameBuf)),
	)
	if err != nil {
		return types.VolumeDescriptor{}, false, &glinterrors.FilesystemError{Operation: "GetVolumeInformation", Reason: err.Error()}
	}

	fsType := windows.UTF16ToString(fsNameBuf[:])
	if !strings.EqualFold(fsType, "NTFS") {
		return types.VolumeDescriptor{}, false, nil
	}

	var freeBytesAvail, totalBytes, totalFreeBytes uint64
	_ = windows.GetDiskFreeSpaceEx(mountPtr, &freeBytesAvail, &totalBytes, &totalFreeBytes)

	id := types.VolumeId(fmt.Sprintf("%08X", serial))
	label := windows.UTF16ToString(volumeNameBuf[:])
	driveLetter := strings.TrimSuffix(mount, `\`)

	return types.VolumeDescriptor{
		ID:                    id,
		MountPoint:            driveLetter,
		Label:                 label,
		FSType:                "NTFS",
		TotalBytes:            totalBytes,
		FreeBytes:             totalFreeBytes,
		SupportsChangeJournal: true,
	}, true, nil
}

// firstMountPoint resolves a volume GUID path to its first drive-letter
// mount point, if it has one.
func firstMountPoint(guidPath string) (string, bool, error) {
	var lenNeeded uint32
	buf := make([]uint16, windows.MAX_PATH)
	err := windows.GetVolumePathNamesForVolumeName(
		windows.StringToUTF16Ptr(guidPath),
		&buf[0], uint32(len(buf)),
		&lenNeeded,
	)
	if err != nil {
		if err == windows.ERROR_MORE_DATA {
			buf = make([]uint16, lenNeeded)
			err = windows.GetVolumePathNamesForVolumeName(
				windows.StringToUTF16Ptr(guidPath),
				&buf[0], uint32(len(buf)),
				&lenNeeded,
			)
		}
		if err != nil {
			return "", false, nil
		}
	}

	// buf holds a sequence of null-terminated strings, terminated by an
	// empty string; take the first one.
	first := windows.UTF16ToString(buf)
	if first == "" {
		return "", false, nil
	}
	return first, true, nil
}

// openVolumeHandle opens a raw handle to a volume for USN ioctls, e.g.
// `\\.\C:`.
func openVolumeHandle(driveLetter string) (windows.Handle, error) {
	path := `\\.\` + strings.TrimSuffix(driveLetter, `\`)
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	handle, err := windows.CreateFile(
		pathPtr,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		if err == windows.ERROR_ACCESS_DENIED {
			return 0, &glinterrors.PermissionDeniedError{Operation: "CreateFile", Path: path}
		}
		return 0, &glinterrors.FilesystemError{Operation: "CreateFile " + path, Reason: err.Error()}
	}
	return handle, nil
}

func deviceIoControl(handle windows.Handle, code uint32, in []byte, outBuf []byte) (uint32, error) {
	var bytesReturned uint32
	var inPtr *byte
	var inLen uint32
	if len(in) > 0 {
		inPtr = &in[0]
		inLen = uint32(len(in))
	}
	err := windows.DeviceIoControl(handle, code, inPtr, inLen, &outBuf[0], uint32(len(outBuf)), &bytesReturned, nil)
	return bytesReturned, err
}

