package rpmspec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSpec = `%global ver 2.1
%define pyname foo
Name:           python-%{pyname}
Version:        %{ver}
Release:        3%{?dist}
Summary:        Sample

Source0:        https://example.com/%{pyname}-%{version}.tar.gz
Source1:        foo.conf
Patch0:         0001-fix-build.patch
Patch1:         0002-fix-tests.patch

BuildRequires:  gcc, make >= 4.0, python3-devel
BuildRequires:  pkgconfig(glib-2.0) pkgconfig(gio-2.0)
BuildRequires:  cmake
Requires:       %{name}-libs%{?_isa} = %{version}-%{release}
Requires(post): systemd
Provides:       python3-%{pyname} = %{version}
`

func TestParse(t *testing.T) {
	spec := Parse(sampleSpec)

	assert.Equal(t, "python-foo", spec.Name)
	assert.Equal(t, "2.1", spec.Version)
	assert.Equal(t, "3%{?dist}", spec.Release)

	assert.Equal(t, "2.1", spec.Macros["ver"])
	assert.Equal(t, "foo", spec.Macros["pyname"])
	assert.Equal(t, "1", spec.Macros["epoch"])
	assert.Equal(t, "python-foo", spec.Macros["name"])
	assert.Equal(t, "2.1", spec.Macros["version"])

	assert.Equal(t, []string{
		"gcc", "make", "pkgconfig(gio-2.0)", "pkgconfig(glib-2.0)", "python3-devel",
	}, spec.BuildRequires.Sorted())
	// Whitespace split lines leave their macro-only version part behind
	assert.Equal(t, []string{"2.1-3%{?dist}", "python-foo-libsaarch64"}, spec.Requires.Sorted())
	assert.Equal(t, []string{"2.1", "python3-foo"}, spec.Provides.Sorted())

	assert.Equal(t, []string{
		"foo.conf", "https://example.com/%{pyname}-%{version}.tar.gz",
	}, spec.Sources.Sorted())
	assert.Equal(t, 2, spec.Diverse())
}

func TestParseVersionFromGlobal(t *testing.T) {
	spec := Parse("Name: foo\nVersion: %{ver}\n%global ver 2.1\n")
	assert.Equal(t, "foo", spec.Name)
	assert.Equal(t, "2.1", spec.Version)
}

func TestParseInlineConditionalGlobal(t *testing.T) {
	spec := Parse("%{!?upver: %global upver 3.4}\nName: foo\nVersion: %{upver}\n")
	assert.Equal(t, "3.4", spec.Macros["upver"])
	assert.Equal(t, "3.4", spec.Version)

	spec = Parse("%if 0\n  %define rel %{?dist}\n%endif\nRelease: 1%{rel}\n")
	assert.Equal(t, "%{?dist}", spec.Macros["rel"])
	assert.Equal(t, "1%{?dist}", spec.Release)
}

func TestParseSingleWordDependencies(t *testing.T) {
	spec := Parse("BuildRequires: cmake\nRequires: bar baz\nProvides: qux\nRequires: a, b\n")
	assert.Empty(t, spec.BuildRequires)
	assert.Equal(t, []string{"a", "b", "bar", "baz"}, spec.Requires.Sorted())
	assert.Empty(t, spec.Provides)
}

func TestParseLastMatchWins(t *testing.T) {
	spec := Parse("Name: foo\nname: bar\nVERSION: 1.0\nVersion: 1.1\n")
	assert.Equal(t, "bar", spec.Name)
	assert.Equal(t, "1.1", spec.Version)
}

func TestParseUnresolvedMacro(t *testing.T) {
	spec := Parse("Name: foo\nVersion: %{upstream_version}\n")
	assert.Equal(t, "%{upstream_version}", spec.Version)
}

func TestParseEmpty(t *testing.T) {
	spec := Parse("")
	assert.Empty(t, spec.Name)
	assert.Empty(t, spec.Version)
	assert.Empty(t, spec.Release)
	assert.Empty(t, spec.BuildRequires)
	assert.Empty(t, spec.Requires)
	assert.Empty(t, spec.Provides)
	assert.Equal(t, 0, spec.Diverse())
}

func TestParseReaderCRLF(t *testing.T) {
	spec, err := ParseReader(strings.NewReader("Name: foo\r\nVersion: 1.0\r\n%global x  y \r\n"))
	require.NoError(t, err)
	assert.Equal(t, "foo", spec.Name)
	assert.Equal(t, "1.0", spec.Version)
	assert.Equal(t, "y", spec.Macros["x"])
}

func TestExpandMacros(t *testing.T) {
	spec := Parse(sampleSpec)
	got := spec.ExpandMacros(spec.Sources)
	assert.Equal(t, []string{
		"foo.conf", "https://example.com/foo-2.1.tar.gz",
	}, got.Sorted())
}

func TestParseSRPMRejectsGarbage(t *testing.T) {
	_, err := ParseSRPM(strings.NewReader("definitely not an rpm"))
	assert.Error(t, err)
}
