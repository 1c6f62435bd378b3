package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd(t *testing.T) {
	orig := version
	t.Cleanup(func() { SetVersion(orig) })

	SetVersion("v1.2.3")

	var out bytes.Buffer
	VersionCmd.SetOut(&out)
	t.Cleanup(func() { VersionCmd.SetOut(nil) })

	VersionCmd.Run(VersionCmd, nil)
	assert.Equal(t, "overlap-tunnel v1.2.3\n", out.String())
}

func TestVersionStringDev(t *testing.T) {
	orig := version
	t.Cleanup(func() { SetVersion(orig) })

	SetVersion("dev")
	assert.Contains(t, versionString(), "overlap-tunnel ")
}
