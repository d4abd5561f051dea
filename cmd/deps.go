package cmd

import (
	"github.com/jackchuka/allerscan/internal/camera"
	"github.com/jackchuka/allerscan/internal/openfoodfacts"
	"github.com/jackchuka/allerscan/internal/permission"
)

func newPermissionProvider(allowStdin bool) permission.Provider {
	if denyCamera {
		return permission.Static(permission.Denied)
	}
	return permission.DeviceProvider{Path: cfg.BackDevice, AllowStdin: allowStdin}
}

func newLookup() *openfoodfacts.Client {
	return openfoodfacts.NewClient(cfg.BaseURL, cfg.UserAgent, cfg.LookupTimeout)
}

func newDetectorOpener() func() (camera.Detector, error) {
	return func() (camera.Detector, error) {
		filter, err := camera.NewFilter(cfg.IgnorePatterns)
		if err != nil {
			return nil, err
		}
		sources, err := camera.OpenDevices(cfg.BackDevice, cfg.FrontDevice)
		if err != nil {
			return nil, err
		}
		return camera.NewDeviceReader(sources, filter), nil
	}
}
