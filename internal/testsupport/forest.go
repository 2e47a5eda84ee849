package testsupport

import (
	"bytes"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/matzehuels/storybox/pkg/formats/device"
	"github.com/matzehuels/storybox/pkg/formats/studio"
	"github.com/matzehuels/storybox/pkg/keys"
	"github.com/matzehuels/storybox/pkg/story"
)

// The forest story exists in both formats with the same graph:
//
//	0 cover  --ok-->  3 choose --option 0 of 2--> 1 fox --ok/timeout--> 4 end --> 0
//	                           --option 1 of 2--> 2 owl --ok----------> 4 end
var (
	// ForestPackKey seals the device pack index.
	ForestPackKey = []byte("forest-pack-key!")
	// ForestAssetKey obfuscates device assets.
	ForestAssetKey = []byte("forest-asset-key")
	// ForestPackageID is the identifier the forest package is loaded under.
	ForestPackageID = "FOREST01"
)

// ForestAssetNames lists the assets in pack index order.
var ForestAssetNames = []string{"cover.png", "cover.mp3", "fox.mp3", "owl.png"}

// ForestAssets returns the asset contents by studio file name.
func ForestAssets() map[string][]byte {
	return map[string][]byte{
		"cover.png": bytes.Repeat([]byte("cover image "), 60),
		"cover.mp3": bytes.Repeat([]byte("cover audio "), 20),
		"fox.mp3":   []byte("the fox runs through the forest"),
		"owl.png":   bytes.Repeat([]byte{0x89, 'P', 'N', 'G'}, 200),
	}
}

// ForestStudio returns the studio manifest of the forest story.
func ForestStudio() *studio.Document {
	return &studio.Document{
		Format:             studio.SupportedFormat,
		Version:            Ptr(1),
		Title:              "The Forest",
		NightModeAvailable: true,
		StageNodes: []studio.StageNode{
			{
				UUID:            "cover",
				Name:            "Cover",
				SquareOne:       true,
				Image:           Ptr("cover.png"),
				Audio:           Ptr("cover.mp3"),
				OkTransition:    &studio.Link{ActionNode: "choose", OptionIndex: 0},
				ControlSettings: &studio.ControlSettings{Ok: true, Home: true},
			},
			{
				UUID:            "fox",
				Name:            "Fox",
				Audio:           Ptr("fox.mp3"),
				OkTransition:    &studio.Link{ActionNode: "end", OptionIndex: 0},
				ControlSettings: &studio.ControlSettings{Home: true, Autoplay: true},
			},
			{
				UUID:            "owl",
				Name:            "Owl",
				Image:           Ptr("owl.png"),
				OkTransition:    &studio.Link{ActionNode: "end", OptionIndex: 0},
				ControlSettings: &studio.ControlSettings{Wheel: true, Ok: true, Home: true},
			},
		},
		ActionNodes: []studio.ActionNode{
			{ID: "choose", Name: "Choose", Options: []string{"fox", "owl"}},
			{ID: "end", Name: "End", Options: []string{"cover"}},
		},
	}
}

// ForestDevice returns the device encoding of the forest story. Assets are
// obfuscated with ForestAssetKey, carry digests, and their index entries
// are sealed with ForestPackKey.
func ForestDevice() DevicePackage {
	assets := ForestAssets()
	p := DevicePackage{
		PackKey:      ForestPackKey,
		StoryVersion: 1,
		NightMode:    true,
		Nodes: []DeviceNode{
			{
				Flags: device.FlagOk | device.FlagHome | device.FlagEntry,
				Image: 0, Audio: 1,
				Slots: []device.RecordSlot{Slot(story.CondOk, 3, 0, 0)},
			},
			{
				Flags: device.FlagHome | device.FlagAutoplay,
				Image: device.Unused, Audio: 2,
				Slots: []device.RecordSlot{
					Slot(story.CondOk, 4, 0, 0),
					Slot(story.CondTimeout, 4, 0, 0),
				},
			},
			{
				Flags: device.FlagWheel | device.FlagOk | device.FlagHome,
				Image: 3, Audio: device.Unused,
				Slots: []device.RecordSlot{Slot(story.CondOk, 4, 0, 0)},
			},
			{
				Action: true,
				Image:  device.Unused, Audio: device.Unused,
				Slots: []device.RecordSlot{
					Slot(story.CondOption, 1, 0, 2),
					Slot(story.CondOption, 2, 1, 2),
				},
			},
			{
				Action: true,
				Image:  device.Unused, Audio: device.Unused,
				Slots: []device.RecordSlot{Slot(story.CondOption, 0, 0, 1)},
			},
		},
	}
	for _, name := range ForestAssetNames {
		p.Assets = append(p.Assets, DeviceAsset{
			Data:   assets[name],
			Key:    ForestAssetKey,
			Seal:   true,
			Digest: true,
		})
	}
	return p
}

// ForestKeys returns a provider holding the forest pack key.
func ForestKeys(t testing.TB) keys.Provider {
	t.Helper()
	k, err := keys.NewStatic("", map[string]string{
		ForestPackageID: hex.EncodeToString(ForestPackKey),
	})
	if err != nil {
		t.Fatalf("forest keys: %v", err)
	}
	return k
}

// WriteForestDevice writes the device forest package below parent in a
// directory named after ForestPackageID and returns its path.
func WriteForestDevice(t testing.TB, parent string) string {
	t.Helper()
	dir := filepath.Join(parent, ForestPackageID)
	WriteDevice(t, dir, ForestDevice())
	return dir
}

// WriteForestStudio writes the studio forest package below parent in a
// directory named after ForestPackageID and returns its path.
func WriteForestStudio(t testing.TB, parent string) string {
	t.Helper()
	dir := filepath.Join(parent, ForestPackageID)
	WriteStudio(t, dir, ForestStudio(), ForestAssets())
	return dir
}
