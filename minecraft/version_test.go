package minecraft

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mrnavastar/blockman/api"
	"github.com/mrnavastar/blockman/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const versionJson = `{
	"arguments": {
		"game": [
			"--username", "${auth_player_name}",
			"--version", "${version_name}",
			"--gameDir", "${game_directory}",
			"--assetsDir", "${assets_root}",
			"--assetIndex", "${assets_index_name}",
			"--uuid", "${auth_uuid}",
			"--accessToken", "${auth_access_token}",
			"--clientId", "${clientid}",
			"--xuid", "${auth_xuid}",
			"--userType", "${user_type}",
			"--versionType", "${version_type}",
			{"rules": [{"action": "allow", "features": {"is_demo_user": true}}], "value": "--demo"},
			{"rules": [{"action": "allow", "features": {"has_custom_resolution": true}}], "value": ["--width", "${resolution_width}", "--height", "${resolution_height}"]}
		],
		"jvm": [
			{"rules": [{"action": "allow", "os": {"name": "osx"}}], "value": ["-XstartOnFirstThread"]},
			{"rules": [{"action": "allow", "os": {"name": "windows"}}], "value": "-XX:HeapDumpPath=MojangTricksIntelDriversForPerformance_javaw.exe_minecraft.exe.heapdump"},
			{"rules": [{"action": "allow", "os": {"arch": "x86"}}], "value": "-Xss1M"},
			"-Djava.library.path=${natives_directory}",
			"-Dminecraft.launcher.brand=${launcher_name}",
			"-Dminecraft.launcher.version=${launcher_version}",
			"-cp",
			"${classpath}"
		]
	},
	"assetIndex": {"id": "1.19", "sha1": "a0b2", "size": 385636, "totalSize": 554306596, "url": "https://piston-meta.mojang.com/v1/packages/a0b2/1.19.json"},
	"assets": "1.19",
	"complianceLevel": 1,
	"downloads": {
		"client": {"sha1": "055b", "size": 21530934, "url": "https://piston-data.mojang.com/v1/objects/055b/client.jar"},
		"server": {"sha1": "f69c", "size": 45552920, "url": "https://piston-data.mojang.com/v1/objects/f69c/server.jar"}
	},
	"id": "1.19.2",
	"javaVersion": {"component": "java-runtime-gamma", "majorVersion": 17},
	"libraries": [
		{"downloads": {"artifact": {"path": "com/mojang/logging/1.0.0/logging-1.0.0.jar", "sha1": "f6ca", "size": 15343, "url": "https://libraries.minecraft.net/com/mojang/logging/1.0.0/logging-1.0.0.jar"}}, "name": "com.mojang:logging:1.0.0"},
		{"downloads": {"artifact": {"path": "org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1-natives-linux.jar", "sha1": "1de8", "size": 110704, "url": "https://libraries.minecraft.net/org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1-natives-linux.jar"}}, "name": "org.lwjgl:lwjgl:3.3.1:natives-linux", "rules": [{"action": "allow", "os": {"name": "linux"}}]},
		{"downloads": {"artifact": {"path": "ca/weblite/java-objc-bridge/1.1/java-objc-bridge-1.1.jar", "sha1": "1227", "size": 1330045, "url": "https://libraries.minecraft.net/ca/weblite/java-objc-bridge/1.1/java-objc-bridge-1.1.jar"}, "classifiers": {"natives-osx": {"path": "x", "sha1": "y", "size": 1, "url": "z"}}}, "name": "ca.weblite:java-objc-bridge:1.1", "natives": {"osx": "natives-osx"}, "extract": {"exclude": ["META-INF/"]}, "rules": [{"action": "allow", "os": {"name": "osx"}}]}
	],
	"logging": {"client": {"argument": "-Dlog4j.configurationFile=${path}", "file": {"id": "client-1.12.xml", "sha1": "bd65", "size": 888, "url": "https://piston-data.mojang.com/v1/objects/bd65/client-1.12.xml"}, "type": "log4j2-xml"}},
	"mainClass": "net.minecraft.client.main.Main",
	"minimumLauncherVersion": 21,
	"releaseTime": "2022-08-05T11:57:05+00:00",
	"time": "2022-08-05T11:57:05+00:00",
	"type": "release"
}`

func TestParseVersionData(t *testing.T) {
	versionData, err := ParseVersionData([]byte(versionJson))
	require.NoError(t, err)

	assert.Equal(t, "1.19.2", versionData.Id)
	assert.Equal(t, api.Release, versionData.Type)
	assert.Equal(t, "1.19", versionData.AssetIndex.Id)
	assert.Equal(t, 21, versionData.MinimumLauncherVersion)
	assert.JSONEq(t, `{"component": "java-runtime-gamma", "majorVersion": 17}`, string(versionData.JavaVersion))
	require.Len(t, versionData.Libraries, 3)
	assert.NotEmpty(t, versionData.Libraries[2].Downloads.Classifiers)
	require.NotNil(t, versionData.LoggingClient())
	assert.Equal(t, "client-1.12.xml", versionData.LoggingClient().File.Id)

	require.NotNil(t, versionData.Arguments)
	assert.Equal(t, []string{"--demo"}, versionData.Arguments.Game[22].Value)
	assert.Len(t, versionData.Arguments.Game[23].Value, 4)
	assert.Nil(t, versionData.Arguments.Jvm[3].Rules)
}

func TestVersionDataRoundTrip(t *testing.T) {
	first, err := ParseVersionData([]byte(versionJson))
	require.NoError(t, err)

	data, err := json.Marshal(first)
	require.NoError(t, err)

	second, err := ParseVersionData(data)
	require.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)
	assert.Len(t, second.Libraries, len(first.Libraries))
	assert.Equal(t, first.Libraries[1].Rules, second.Libraries[1].Rules)
	assert.Equal(t, first.Arguments, second.Arguments)
	assert.Equal(t, first.AssetIndex, second.AssetIndex)
	assert.Equal(t, first.Downloads, second.Downloads)
	assert.JSONEq(t, string(first.JavaVersion), string(second.JavaVersion))
	assert.True(t, time.Time(first.ReleaseTime).Equal(time.Time(second.ReleaseTime)))

	again, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestParseVersionDataFailures(t *testing.T) {
	_, err := ParseVersionData([]byte(`{"id": "1.19.2"`))
	assert.ErrorIs(t, err, util.ErrParseFailed)

	_, err = ParseVersionData([]byte(`{"id": "1.19.2"}`))
	assert.ErrorIs(t, err, util.ErrParseFailed)

	_, err = ReadVersionData(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, util.ErrFilesystem)
}

func TestLibraryName(t *testing.T) {
	name, err := Library{Name: "com.mojang:brigadier:1.0.18"}.ParseName()
	require.NoError(t, err)
	assert.Equal(t, LibraryName{Package: "com/mojang", Name: "brigadier", Version: "1.0.18"}, name)
	assert.Equal(t, "brigadier-1.0.18.jar", name.JarName())
	assert.Equal(t, filepath.Join("libs", "com", "mojang", "brigadier", "1.0.18"), name.Dir("libs"))

	name, err = Library{Name: "org.lwjgl:lwjgl:3.3.1:natives-linux"}.ParseName()
	require.NoError(t, err)
	assert.Equal(t, "lwjgl-3.3.1-natives-linux.jar", name.JarName())

	for _, bad := range []string{"brigadier", "com.mojang:brigadier", "a:b:c:d:e", "com.mojang::1.0"} {
		_, err := Library{Name: bad}.ParseName()
		assert.ErrorIs(t, err, util.ErrLibraryNameFormat, bad)
	}
}

func TestLibraryNative(t *testing.T) {
	library := Library{
		Name:    "org.lwjgl.lwjgl:lwjgl-platform:2.9.4",
		Natives: map[string]string{"linux": "natives-linux", "windows": "natives-windows-${arch}"},
	}

	native, ok := library.Native(util.Platform{OS: util.Windows, Bits: 32})
	assert.True(t, ok)
	assert.Equal(t, "natives-windows-32", native)

	_, ok = library.Native(util.Platform{OS: util.MacOS, Bits: 64})
	assert.False(t, ok)

	_, ok = library.Native(util.Platform{OS: util.Other, Bits: 64})
	assert.False(t, ok)

	name, err := library.ParseName()
	require.NoError(t, err)
	assert.Equal(t, LIBRARIES_BASE_URL+"/org/lwjgl/lwjgl/lwjgl-platform/2.9.4/lwjgl-platform-2.9.4-natives-linux.jar", name.NativeUrl("natives-linux"))

	path, err := library.JarPath("libs", linux64.Platform)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("libs", "org", "lwjgl", "lwjgl", "lwjgl-platform", "2.9.4", "lwjgl-platform-2.9.4-natives-linux.jar"), path)
}

func TestArgumentJSON(t *testing.T) {
	var args []Argument
	require.NoError(t, json.Unmarshal([]byte(`[
		"--plain",
		{"compatibilityRules": [{"action": "allow", "os": {"name": "osx"}}], "value": "-XstartOnFirstThread"},
		{"rules": [], "value": ["a", "b"]}
	]`), &args))

	require.Len(t, args, 3)
	assert.Equal(t, Argument{Value: []string{"--plain"}}, args[0])
	assert.Equal(t, "osx", args[1].Rules[0].OS.Name)
	assert.Equal(t, []string{"-XstartOnFirstThread"}, args[1].Value)
	assert.NotNil(t, args[2].Rules)
	assert.Equal(t, []string{"a", "b"}, args[2].Value)

	data, err := json.Marshal(args)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		"--plain",
		{"rules": [{"action": "allow", "os": {"name": "osx"}}], "value": "-XstartOnFirstThread"},
		{"rules": [], "value": ["a", "b"]}
	]`, string(data))
}
