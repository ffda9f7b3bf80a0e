package rpi

import (
	"errors"
	"fmt"
	"os"
	"path"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// The mailbox property interface is documented at
// https://github.com/raspberrypi/firmware/wiki/Mailbox-property-interface
// It's only used here to ask the firmware for the board revision when the
// device tree doesn't have it.

const (
	VIDEOCORE_MAJOR_NUM = 100
	VCIO_FILE           = "/dev/vcio"
	MBOX_DEV            = 100 << 20 // Assumes devices have 12-bit major, 20-bit minor numbers
	MBOX_MODE           = 0600

	MBOX_TAG_GET_BOARD_REVISION = 0x00010002
	MBOX_RESPONSE_OK            = 0x80000000
)

type mbox struct {
	f *os.File
}

// mboxOpenTemp creates a temporary device node for ioctl-ing with the mailbox, opens it and
// immediately removes the node once it's open.
func mboxOpenTemp() (*mbox, error) {
	tf := path.Join(os.TempDir(), fmt.Sprintf("mailbox-%d", os.Getpid()))
	err := os.Remove(tf)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, xerrors.Errorf("couldn't remove temp mbox: %w", err)
	}
	err = unix.Mknod(tf, unix.S_IFCHR|MBOX_MODE, MBOX_DEV)
	if err != nil {
		return nil, xerrors.Errorf("couldn't make device node: %w", err)
	}
	f, err := os.OpenFile(tf, os.O_RDONLY, 0)
	if err != nil {
		return nil, xerrors.Errorf("couldn't open temp mbox: %w", err)
	}
	err = os.Remove(tf)
	if err != nil {
		f.Close() // Ignore error
		return nil, xerrors.Errorf("couldn't remove temp mbox: %w", err)
	}
	return &mbox{f}, nil
}

// mboxOpen opens /dev/vcio for ioctl-ing with the mailbox. If that doesn't exist, it passes instead
// to mboxOpenTemp to get a temporary node.
func mboxOpen() (*mbox, error) {
	f, err := os.OpenFile(VCIO_FILE, os.O_RDONLY, 0)
	if errors.Is(err, os.ErrNotExist) {
		return mboxOpenTemp()
	}
	if err != nil {
		return nil, xerrors.Errorf("couldn't open mbox: %w", err)
	}
	return &mbox{f}, nil
}

func (m *mbox) close() error {
	return m.f.Close()
}

// property uses ioctl to send messages via the mailbox
func (m *mbox) property(buf []uint32) error {
	err := ioctlArrUint32(m.f.Fd(), iowr(VIDEOCORE_MAJOR_NUM, 0), buf)
	if err != nil {
		return xerrors.Errorf("failed ioctl mbox property: %w", err)
	}
	return nil
}

// revisionRequest builds a property buffer asking for the board revision.
func revisionRequest() []uint32 {
	i := uint32(0)
	p := make([]uint32, 8)
	p[i] = 0 // size
	i++
	p[i] = 0x00000000 // process request
	i++

	p[i] = MBOX_TAG_GET_BOARD_REVISION
	i++
	p[i] = 4 // size of the value buffer
	i++
	p[i] = 0 // bit 31 cleared, rest is reserved
	i++
	p[i] = 0 // value buffer, filled in by the firmware
	i++

	p[i] = 0 // no more tags
	i++
	p[0] = i * 4 // actual size of the message
	return p
}

// parseRevisionResponse checks a completed revisionRequest buffer.
func parseRevisionResponse(p []uint32) (uint32, error) {
	if p[1] != MBOX_RESPONSE_OK {
		return 0, xerrors.Errorf("mailbox request failed: %08X", p[1])
	}
	if p[4]&0x80000000 == 0 {
		return 0, xerrors.Errorf("response tag unset: %08X", p[4])
	}
	return p[5], nil // 5 is the value buffer
}

func mboxRevision() (uint32, error) {
	m, err := mboxOpen()
	if err != nil {
		return 0, err
	}
	defer m.close() // Ignore error
	p := revisionRequest()
	if err := m.property(p); err != nil {
		return 0, err
	}
	return parseRevisionResponse(p)
}
