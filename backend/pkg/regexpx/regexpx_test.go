package regexpx_test

import (
	"regexp"
	"testing"

	"github.com/cddsproject/cdds/backend/pkg/regexpx"
	"github.com/stretchr/testify/require"
)

func TestVerboseNamedGroups(t *testing.T) {
	re := regexp.MustCompile(regexpx.Verbose(`
		_
		( ?P<start> [0-9]+ )
		-
		( ?P<end> [0-9]+ )
		( ?P<clim> -clim )?
		\.nc
		$
	`))

	g := regexpx.NamedGroups(re, "tas_Amon_M_e_r1i1p1f1_gn_185001-194912-clim.nc")
	require.Equal(t, map[string]string{
		"start": "185001",
		"end":   "194912",
		"clim":  "-clim",
	}, g)

	require.Nil(t, regexpx.NamedGroups(re, "tas.txt"))
}
