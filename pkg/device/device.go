package device

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/syncdroid/pkg/errors"
	"github.com/sidkik/syncdroid/pkg/gvfs"
	"github.com/sidkik/syncdroid/pkg/sync"
)

const (
	mtpURLPattern  = "mtp://[usb:%s,%s]/"
	gvfsDirPattern = "/run/user/%d/gvfs/mtp:host=%%5Busb%%3A%s%%2C%s%%5D"
)

// Mocked out for unit testing.
var getUID = os.Getuid

// lsusb prints lines such as:
// Bus 002 Device 003: ID 04e8:6860 Samsung Electronics Co., Ltd Galaxy (MTP)
var lsusbLine = regexp.MustCompile(`^Bus (\d{3}) Device (\d{3}): ID ([0-9a-fA-F]{4}):([0-9a-fA-F]{4}) ?(.*)$`)

// Device is a USB device reported by lsusb.
type Device struct {
	Bus         string
	Number      string
	VendorID    string
	ProductID   string
	Description string

	line string
}

func (d Device) String() string {
	return d.line
}

// MountPoint returns where gvfs mounts the device.
func (d Device) MountPoint() sync.Mount {
	return MountPoint(d.Bus, d.Number)
}

// MountPoint returns the MTP URL of the device on the given USB bus, and the
// directory that gvfs mounts it at for the current user.
func MountPoint(bus, number string) sync.Mount {
	return sync.Mount{
		URL:  fmt.Sprintf(mtpURLPattern, bus, number),
		Root: fmt.Sprintf(gvfsDirPattern, getUID(), bus, number),
	}
}

// Finder looks up connected USB devices.
type Finder struct {
	Runner gvfs.Runner
}

// List returns every USB device that's currently connected. Lines that
// aren't in the expected format are skipped.
func (f Finder) List() ([]Device, error) {
	out, err := f.Runner.Run("lsusb")
	if err != nil {
		return nil, errors.WithContext(err, "list usb devices")
	}

	var devices []Device
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		match := lsusbLine.FindStringSubmatch(line)
		if match == nil {
			log.WithField("line", line).Debug("Skipping unrecognized lsusb output")
			continue
		}

		devices = append(devices, Device{
			Bus:         match[1],
			Number:      match[2],
			VendorID:    match[3],
			ProductID:   match[4],
			Description: match[5],
			line:        line,
		})
	}
	return devices, nil
}

// Discover returns the first connected device whose lsusb line matches both
// the vendor and model patterns. The patterns are case insensitive regular
// expressions.
func (f Finder) Discover(vendor, model string) (Device, error) {
	vendorPattern, err := compilePattern("vendor", vendor)
	if err != nil {
		return Device{}, err
	}

	modelPattern, err := compilePattern("model", model)
	if err != nil {
		return Device{}, err
	}

	devices, err := f.List()
	if err != nil {
		return Device{}, err
	}

	var candidates []string
	for _, device := range devices {
		if !vendorPattern.MatchString(device.line) {
			continue
		}

		if modelPattern.MatchString(device.line) {
			return device, nil
		}

		if !contains(candidates, device.Description) {
			candidates = append(candidates, device.Description)
		}
	}

	return Device{}, errors.DeviceNotFound{
		Vendor:     vendor,
		Model:      model,
		Candidates: candidates,
	}
}

func compilePattern(field, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, errors.NewFriendlyError("Invalid device %s pattern %q: %s", field, pattern, err)
	}
	return re, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
