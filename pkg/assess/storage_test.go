package assess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lsblkFixture = `{
  "blockdevices": [
    {"name": "loop0", "model": null, "size": "4K", "type": "loop", "mountpoint": "/snap/bare/5", "rota": false, "tran": null},
    {"name": "nvme0n1", "model": "Samsung SSD 990 PRO 2TB", "size": "1.8T", "type": "disk", "mountpoint": null, "rota": false, "tran": "nvme",
     "children": [
       {"name": "nvme0n1p1", "size": "512M", "type": "part", "mountpoint": "/boot/efi", "rota": false},
       {"name": "nvme0n1p2", "size": "1.8T", "type": "part", "mountpoint": "/", "rota": false}
     ]},
    {"name": "sda", "model": "WDC WD40EZRZ", "size": "3.6T", "type": "disk", "mountpoint": null, "rota": true, "tran": "sata",
     "children": [
       {"name": "sda1", "size": "3.6T", "type": "part", "mountpoint": "/data", "rota": true}
     ]}
  ]
}`

func storageSession(t *testing.T, stdout string) *Session {
	t.Helper()
	r := &fakeRunner{
		respond: func(argv []string, stdin string) (procResult, error) {
			return procResult{stdout: stdout, hasExit: true}, nil
		},
	}
	return newTestSession(t, r)
}

func TestCollectStorage(t *testing.T) {
	s := storageSession(t, lsblkFixture)
	disks := s.CollectStorage(context.Background())

	require.Len(t, disks, 2, "loop devices must be dropped")

	nvme := disks[0]
	assert.Equal(t, "nvme0n1", nvme.Name)
	assert.True(t, nvme.IsNVMe())
	assert.False(t, nvme.Rota)
	assert.Equal(t, []string{"/", "/boot/efi"}, nvme.Mountpoints())

	hdd := disks[1]
	assert.Equal(t, "sda", hdd.Name)
	assert.False(t, hdd.IsNVMe())
	assert.True(t, hdd.Rota)
	assert.Equal(t, []string{"/data"}, hdd.Mountpoints())
}

func TestCollectStorageBadJSON(t *testing.T) {
	s := storageSession(t, "lsblk: invalid option -- 'J'")
	assert.Nil(t, s.CollectStorage(context.Background()))
}

func TestCollectStorageEmptyOutput(t *testing.T) {
	s := storageSession(t, "")
	assert.Nil(t, s.CollectStorage(context.Background()))
}

func TestCollectNVMeListAbsentTool(t *testing.T) {
	r := &fakeRunner{}
	s := newTestSession(t, r)
	// lookPath in newTestSession fails for everything.

	out := s.CollectNVMeList(context.Background())
	assert.Empty(t, out)
	assert.Empty(t, r.calls, "nvme must not run when the binary is absent")
}

func TestCollectNVMeListPresent(t *testing.T) {
	r := &fakeRunner{
		respond: func(argv []string, stdin string) (procResult, error) {
			return procResult{stdout: "Node  SN  Model\n/dev/nvme0n1  X  Samsung", hasExit: true}, nil
		},
	}
	s := newTestSession(t, r)
	s.lookPath = func(string) (string, error) { return "/usr/sbin/nvme", nil }

	out := s.CollectNVMeList(context.Background())
	assert.Contains(t, out, "/dev/nvme0n1")
}
