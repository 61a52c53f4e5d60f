//go:build darwin || linux

// Package player binds GStreamer at runtime via purego.
//
// The binding loads libgstreamer-1.0, libgstapp-1.0, libgobject-2.0 and
// libglib-2.0 dynamically, so the package builds with CGO_ENABLED=0 and only
// needs the GStreamer runtime to be installed on the target.
//
// Library locations checked (in order):
//   - PLAYER_GST_LIB_PATH environment variable (directory)
//   - Versioned sonames on the default loader path
//   - Common system prefixes

package player

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	gstOnce    sync.Once
	gstInitErr error
	gstLoaded  bool

	gstHandle     uintptr
	gstAppHandle  uintptr
	gobjectHandle uintptr
	glibHandle    uintptr
)

// libgstreamer-1.0 function pointers
var (
	gstInit          func(argc, argv uintptr)
	gstDeinit        func()
	gstIsInitialized func() int32
	gstVersion       func(major, minor, micro, nano uintptr)

	gstParseLaunch     func(description string, gerr uintptr) uintptr
	gstPipelineGetBus  func(pipeline uintptr) uintptr
	gstBusSetSyncHdlr  func(bus, handler, userData, notify uintptr)
	gstBinGetByName    func(bin uintptr, name string) uintptr
	gstElementSetState func(element uintptr, state int32) int32
	gstElementGetState func(element, state, pending uintptr, timeout uint64) int32
	gstElementSeek     func(element uintptr, rate float64, format, flags, startType int32, start int64, stopType int32, stop int64) int32
	gstQueryPosition   func(element uintptr, format int32, cur uintptr) int32
	gstQueryDuration   func(element uintptr, format int32, dur uintptr) int32
	gstGetStaticPad    func(element uintptr, name string) uintptr
	gstPadCurrentCaps  func(pad uintptr) uintptr
	gstCapsGetStruct   func(caps uintptr, index uint32) uintptr
	gstStructureGetInt func(structure uintptr, field string, value uintptr) int32

	gstSampleGetBuffer func(sample uintptr) uintptr
	gstSampleGetCaps   func(sample uintptr) uintptr
	gstBufferExtract   func(buffer uintptr, offset uint64, dest uintptr, size uint64) uint64
	gstBufferGetSize   func(buffer uintptr) uint64

	gstMiniObjectRef   func(obj uintptr) uintptr
	gstMiniObjectUnref func(obj uintptr)
	gstObjectUnref     func(obj uintptr)
	gstObjectGetName   func(obj uintptr) uintptr

	gstMsgParseError   func(msg, gerr, debug uintptr)
	gstMsgParseWarning func(msg, gerr, debug uintptr)

	gstURIIsValid    func(uri string) int32
	gstFilenameToURI func(filename string, gerr uintptr) uintptr
)

// libgstapp-1.0 function pointers
var (
	gstAppSinkPullSample func(appsink uintptr) uintptr
)

// libgobject-2.0 / libglib-2.0 function pointers
var (
	gSignalConnectData func(instance uintptr, signal string, handler, data, destroy uintptr, flags int32) uint64
	gFree              func(ptr uintptr)
	gErrorFree         func(gerr uintptr)
)

// GStreamer constants from the public headers.
const (
	gstStateNull    int32 = 1
	gstStateReady   int32 = 2
	gstStatePaused  int32 = 3
	gstStatePlaying int32 = 4

	gstStateChangeFailure int32 = 0

	gstFormatTime int32 = 3

	gstSeekFlagFlush   int32 = 1 << 0
	gstSeekFlagKeyUnit int32 = 1 << 2

	gstSeekTypeSet int32 = 1
	gstSeekTypeEnd int32 = 2

	gstMessageEOS     uint32 = 1 << 0
	gstMessageError   uint32 = 1 << 1
	gstMessageWarning uint32 = 1 << 2

	gstFlowOK    int32 = 0
	gstFlowError int32 = -5

	gstBusDrop uintptr = 0

	// GST_CLOCK_TIME_NONE as gint64/guint64.
	gstClockTimeNone    int64  = -1
	gstClockTimeNoneU64 uint64 = ^uint64(0)
)

// gstMiniObject mirrors the public GstMiniObject layout on 64-bit targets.
type gstMiniObject struct {
	Type      uintptr
	Refcount  int32
	Lockstate int32
	Flags     uint32
	_         uint32
	CopyFn    uintptr
	DisposeFn uintptr
	FreeFn    uintptr
	PrivUint  uint32
	_         uint32
	PrivPtr   uintptr
}

// gstMessage mirrors the public GstMessage layout up to the fields we read.
type gstMessage struct {
	Mini      gstMiniObject
	MsgType   uint32
	_         uint32
	Timestamp uint64
	Src       uintptr
	Seqnum    uint32
}

// gError mirrors GError: domain quark, code, message pointer.
type gError struct {
	Domain  uint32
	Code    int32
	Message uintptr
}

// loadGst loads the GStreamer shared libraries once.
func loadGst() error {
	gstOnce.Do(func() {
		gstInitErr = loadGstLibs()
		if gstInitErr == nil {
			gstLoaded = true
		}
	})
	return gstInitErr
}

func loadGstLibs() error {
	var err error
	if gstHandle, err = dlopenFirst(gstLibPaths("libgstreamer-1.0")); err != nil {
		return fmt.Errorf("failed to load libgstreamer-1.0: %w", err)
	}
	if gstAppHandle, err = dlopenFirst(gstLibPaths("libgstapp-1.0")); err != nil {
		return fmt.Errorf("failed to load libgstapp-1.0: %w", err)
	}
	if gobjectHandle, err = dlopenFirst(gstLibPaths("libgobject-2.0")); err != nil {
		return fmt.Errorf("failed to load libgobject-2.0: %w", err)
	}
	if glibHandle, err = dlopenFirst(gstLibPaths("libglib-2.0")); err != nil {
		return fmt.Errorf("failed to load libglib-2.0: %w", err)
	}
	loadGstSymbols()
	return nil
}

func dlopenFirst(paths []string) (uintptr, error) {
	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return handle, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return 0, lastErr
	}
	return 0, errors.New("no candidate paths")
}

func gstLibPaths(stem string) []string {
	var paths []string

	ext := ".so.0"
	if runtime.GOOS == "darwin" {
		ext = ".0.dylib"
	}
	libName := stem + ext

	if envPath := os.Getenv("PLAYER_GST_LIB_PATH"); envPath != "" {
		paths = append(paths, filepath.Join(envPath, libName))
	}

	// Default loader search path first, then common prefixes.
	paths = append(paths, libName)
	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			filepath.Join("/opt/homebrew/lib", libName),
			filepath.Join("/usr/local/lib", libName),
		)
	case "linux":
		paths = append(paths,
			filepath.Join("/usr/lib/x86_64-linux-gnu", libName),
			filepath.Join("/usr/lib/aarch64-linux-gnu", libName),
			filepath.Join("/usr/lib64", libName),
			filepath.Join("/usr/lib", libName),
		)
	}
	return paths
}

func loadGstSymbols() {
	purego.RegisterLibFunc(&gstInit, gstHandle, "gst_init")
	purego.RegisterLibFunc(&gstDeinit, gstHandle, "gst_deinit")
	purego.RegisterLibFunc(&gstIsInitialized, gstHandle, "gst_is_initialized")
	purego.RegisterLibFunc(&gstVersion, gstHandle, "gst_version")

	purego.RegisterLibFunc(&gstParseLaunch, gstHandle, "gst_parse_launch")
	purego.RegisterLibFunc(&gstPipelineGetBus, gstHandle, "gst_pipeline_get_bus")
	purego.RegisterLibFunc(&gstBusSetSyncHdlr, gstHandle, "gst_bus_set_sync_handler")
	purego.RegisterLibFunc(&gstBinGetByName, gstHandle, "gst_bin_get_by_name")
	purego.RegisterLibFunc(&gstElementSetState, gstHandle, "gst_element_set_state")
	purego.RegisterLibFunc(&gstElementGetState, gstHandle, "gst_element_get_state")
	purego.RegisterLibFunc(&gstElementSeek, gstHandle, "gst_element_seek")
	purego.RegisterLibFunc(&gstQueryPosition, gstHandle, "gst_element_query_position")
	purego.RegisterLibFunc(&gstQueryDuration, gstHandle, "gst_element_query_duration")
	purego.RegisterLibFunc(&gstGetStaticPad, gstHandle, "gst_element_get_static_pad")
	purego.RegisterLibFunc(&gstPadCurrentCaps, gstHandle, "gst_pad_get_current_caps")
	purego.RegisterLibFunc(&gstCapsGetStruct, gstHandle, "gst_caps_get_structure")
	purego.RegisterLibFunc(&gstStructureGetInt, gstHandle, "gst_structure_get_int")

	purego.RegisterLibFunc(&gstSampleGetBuffer, gstHandle, "gst_sample_get_buffer")
	purego.RegisterLibFunc(&gstSampleGetCaps, gstHandle, "gst_sample_get_caps")
	purego.RegisterLibFunc(&gstBufferExtract, gstHandle, "gst_buffer_extract")
	purego.RegisterLibFunc(&gstBufferGetSize, gstHandle, "gst_buffer_get_size")

	purego.RegisterLibFunc(&gstMiniObjectRef, gstHandle, "gst_mini_object_ref")
	purego.RegisterLibFunc(&gstMiniObjectUnref, gstHandle, "gst_mini_object_unref")
	purego.RegisterLibFunc(&gstObjectUnref, gstHandle, "gst_object_unref")
	purego.RegisterLibFunc(&gstObjectGetName, gstHandle, "gst_object_get_name")

	purego.RegisterLibFunc(&gstMsgParseError, gstHandle, "gst_message_parse_error")
	purego.RegisterLibFunc(&gstMsgParseWarning, gstHandle, "gst_message_parse_warning")

	purego.RegisterLibFunc(&gstURIIsValid, gstHandle, "gst_uri_is_valid")
	purego.RegisterLibFunc(&gstFilenameToURI, gstHandle, "gst_filename_to_uri")

	purego.RegisterLibFunc(&gstAppSinkPullSample, gstAppHandle, "gst_app_sink_pull_sample")

	purego.RegisterLibFunc(&gSignalConnectData, gobjectHandle, "g_signal_connect_data")
	purego.RegisterLibFunc(&gFree, glibHandle, "g_free")
	purego.RegisterLibFunc(&gErrorFree, glibHandle, "g_error_free")
}

// Available reports whether the GStreamer runtime could be loaded.
func Available() bool {
	if err := loadGst(); err != nil {
		return false
	}
	return gstLoaded
}

// Init loads the GStreamer libraries and initializes the framework.
// It must be called once before creating players. Safe to call multiple times.
func Init() error {
	if err := loadGst(); err != nil {
		return err
	}
	if gstIsInitialized() == 0 {
		gstInit(0, 0)
	}
	return nil
}

// Deinit tears down the GStreamer framework. Only useful on full shutdown;
// no player may be used afterwards.
func Deinit() {
	if gstLoaded && gstIsInitialized() != 0 {
		gstDeinit()
	}
}

// Version returns the loaded GStreamer version, or zeros when unavailable.
func Version() (major, minor, micro uint32) {
	if err := loadGst(); err != nil {
		return 0, 0, 0
	}
	var maj, min, mic, nano uint32
	gstVersion(
		uintptr(unsafe.Pointer(&maj)),
		uintptr(unsafe.Pointer(&min)),
		uintptr(unsafe.Pointer(&mic)),
		uintptr(unsafe.Pointer(&nano)),
	)
	return maj, min, mic
}
