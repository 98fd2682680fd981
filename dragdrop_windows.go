//go:build windows

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"github.com/wailsapp/wails/v2/pkg/options"
	"golang.org/x/sys/windows"

	"workspacedrop/internal/dropzone"
)

// Win32/COM APIs for custom drag-drop handling.
// We bypass WebView2's built-in IDropTarget (which crashes on large files)
// and register our own lightweight IDropTarget on Chrome_WidgetWin_0.
// Our handler only reads CF_HDROP (file paths as strings) — no file content loading.
var (
	modOle32   = windows.NewLazySystemDLL("ole32.dll")
	modShell32 = windows.NewLazySystemDLL("shell32.dll")
	user32dll  = windows.NewLazySystemDLL("User32.dll")

	procOleInitialize    = modOle32.NewProc("OleInitialize")
	procOleUninitialize  = modOle32.NewProc("OleUninitialize")
	procRevokeDragDrop   = modOle32.NewProc("RevokeDragDrop")
	procRegisterDragDrop = modOle32.NewProc("RegisterDragDrop")
	procReleaseStgMedium = modOle32.NewProc("ReleaseStgMedium")
	procDragQueryFileW   = modShell32.NewProc("DragQueryFileW")

	pFindWindowW              = user32dll.NewProc("FindWindowW")
	pGetWindowThreadProcessId = user32dll.NewProc("GetWindowThreadProcessId")
	pEnumChildWindows         = user32dll.NewProc("EnumChildWindows")
	pGetClassNameW            = user32dll.NewProc("GetClassNameW")
	pPeekMessageW             = user32dll.NewProc("PeekMessageW")
	pGetMessageW              = user32dll.NewProc("GetMessageW")
	pTranslateMessage         = user32dll.NewProc("TranslateMessage")
	pDispatchMessageW         = user32dll.NewProc("DispatchMessageW")
	pPostThreadMessageW       = user32dll.NewProc("PostThreadMessageW")
)

// COM constants
const (
	cfHDROP         = 15
	dropEffectNone  = 0
	dropEffectCopy  = 1
	tymedHGlobal    = 1
	dvaspectContent = 1
	comSOK          = 0
	comENoInterface = 0x80004002
)

// COM GUIDs
var (
	iidIUnknown    = syscall.GUID{Data1: 0x00000000, Data2: 0x0000, Data3: 0x0000, Data4: [8]byte{0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46}}
	iidIDropTarget = syscall.GUID{Data1: 0x00000122, Data2: 0x0000, Data3: 0x0000, Data4: [8]byte{0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46}}
)

var errWindowNotFound = errors.New("main window not found")

// dragAndDropOptions turns off Wails' file-drop channel: the IDropTarget
// below replaces it. DOM drag events still fire for in-page drags.
func dragAndDropOptions() *options.DragAndDrop {
	return &options.DragAndDrop{
		EnableFileDrop:     false,
		DisableWebViewDrop: false,
	}
}

// FORMATETC — matches Win64 layout with padding for pointer alignment.
type formatETC struct {
	cfFormat uint16
	_pad     [6]byte
	ptd      uintptr
	dwAspect uint32
	lindex   int32
	tymed    uint32
	_pad2    [4]byte
}

// STGMEDIUM — Win64 layout.
type stgMEDIUM struct {
	tymed          uint32
	_pad           uint32
	hGlobal        uintptr
	pUnkForRelease uintptr
}

// dropTargetVtbl is the COM vtable for IDropTarget.
type dropTargetVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
	DragEnter      uintptr
	DragOver       uintptr
	DragLeave      uintptr
	Drop           uintptr
}

// goDropTarget implements IDropTarget. The first field (lpVtbl) must be the
// vtable pointer for COM interop.
type goDropTarget struct {
	lpVtbl   *dropTargetVtbl
	refCount int32
	emit     func(dropzone.NativeEvent)
	accepted bool // set in DragEnter, used by DragOver/DragLeave/Drop
}

// The vtable callbacks are created once per process; syscall.NewCallback
// slots are never released.
var (
	dropTargetVtblOnce sync.Once
	sharedDropVtbl     *dropTargetVtbl

	// live keeps registered targets reachable while COM holds them.
	liveMu sync.Mutex
	live   = map[*goDropTarget]struct{}{}
)

func dropVtbl() *dropTargetVtbl {
	dropTargetVtblOnce.Do(func() {
		sharedDropVtbl = &dropTargetVtbl{
			QueryInterface: syscall.NewCallback(dtQueryInterface),
			AddRef:         syscall.NewCallback(dtAddRef),
			Release:        syscall.NewCallback(dtRelease),
			DragEnter:      syscall.NewCallback(dtDragEnter),
			DragOver:       syscall.NewCallback(dtDragOver),
			DragLeave:      syscall.NewCallback(dtDragLeave),
			Drop:           syscall.NewCallback(dtDrop),
		}
	})
	return sharedDropVtbl
}

// ── COM method implementations ─────────────────────────────────────────────

func dtQueryInterface(this, riid, ppvObject uintptr) uintptr {
	if ppvObject == 0 {
		return comENoInterface
	}
	guid := (*syscall.GUID)(unsafe.Pointer(riid))
	if *guid == iidIUnknown || *guid == iidIDropTarget {
		*(*uintptr)(unsafe.Pointer(ppvObject)) = this
		dtAddRef(this)
		return comSOK
	}
	*(*uintptr)(unsafe.Pointer(ppvObject)) = 0
	return comENoInterface
}

func dtAddRef(this uintptr) uintptr {
	dt := (*goDropTarget)(unsafe.Pointer(this))
	return uintptr(atomic.AddInt32(&dt.refCount, 1))
}

func dtRelease(this uintptr) uintptr {
	dt := (*goDropTarget)(unsafe.Pointer(this))
	return uintptr(atomic.AddInt32(&dt.refCount, -1))
}

// DragEnter: accept only drags carrying CF_HDROP.
// On x64: this=RCX, pDataObj=RDX, grfKeyState=R8, pt=R9 (POINTL packed), pdwEffect=stack
func dtDragEnter(this, pDataObj, grfKeyState, pt, pdwEffect uintptr) uintptr {
	dt := (*goDropTarget)(unsafe.Pointer(this))
	dt.accepted = pDataObj != 0 && dataObjHasHDROP(pDataObj)
	setEffect(pdwEffect, dt.accepted)
	if dt.accepted {
		x, y := unpackPoint(pt)
		dt.emit(dropzone.NativeEvent{Kind: dropzone.NativeEnter, X: x, Y: y})
	}
	return comSOK
}

func dtDragOver(this, grfKeyState, pt, pdwEffect uintptr) uintptr {
	dt := (*goDropTarget)(unsafe.Pointer(this))
	setEffect(pdwEffect, dt.accepted)
	if dt.accepted {
		x, y := unpackPoint(pt)
		dt.emit(dropzone.NativeEvent{Kind: dropzone.NativeOver, X: x, Y: y})
	}
	return comSOK
}

func dtDragLeave(this uintptr) uintptr {
	dt := (*goDropTarget)(unsafe.Pointer(this))
	if dt.accepted {
		dt.accepted = false
		dt.emit(dropzone.NativeEvent{Kind: dropzone.NativeLeave})
	}
	return comSOK
}

// Drop: extract file paths from CF_HDROP and report them.
func dtDrop(this, pDataObj, grfKeyState, pt, pdwEffect uintptr) uintptr {
	dt := (*goDropTarget)(unsafe.Pointer(this))
	accepted := dt.accepted
	dt.accepted = false
	setEffect(pdwEffect, false)

	if pDataObj == 0 || !accepted {
		Log.Debug("dtDrop: rejected", "pDataObj_zero", pDataObj == 0, "accepted", accepted)
		return comSOK
	}

	paths := extractHDROPPaths(pDataObj)
	Log.Debug("dtDrop: extracted paths", "count", len(paths))
	if len(paths) > 0 {
		setEffect(pdwEffect, true)
	}
	x, y := unpackPoint(pt)
	dt.emit(dropzone.NativeEvent{Kind: dropzone.NativeDrop, Paths: paths, X: x, Y: y})
	return comSOK
}

func setEffect(pdwEffect uintptr, copyAllowed bool) {
	if pdwEffect == 0 {
		return
	}
	effect := uint32(dropEffectNone)
	if copyAllowed {
		effect = dropEffectCopy
	}
	*(*uint32)(unsafe.Pointer(pdwEffect)) = effect
}

// unpackPoint splits a POINTL passed by value in one register.
func unpackPoint(pt uintptr) (x, y int) {
	return int(int32(uint32(pt))), int(int32(uint32(uint64(pt) >> 32)))
}

// ── IDataObject helpers ────────────────────────────────────────────────────

// dataObjHasHDROP calls IDataObject::QueryGetData (vtable index 5) to check
// if CF_HDROP format is available.
func dataObjHasHDROP(pDataObj uintptr) bool {
	fe := formatETC{
		cfFormat: cfHDROP,
		dwAspect: dvaspectContent,
		lindex:   -1,
		tymed:    tymedHGlobal,
	}
	vtblPtr := *(*uintptr)(unsafe.Pointer(pDataObj))
	queryGetData := *(*uintptr)(unsafe.Pointer(vtblPtr + 5*unsafe.Sizeof(uintptr(0))))
	ret, _, _ := syscall.SyscallN(queryGetData, pDataObj, uintptr(unsafe.Pointer(&fe)))
	return ret == comSOK
}

// extractHDROPPaths calls IDataObject::GetData (vtable index 3) with CF_HDROP,
// then uses DragQueryFileW to extract file paths. Only reads path strings, never
// file content — safe for any file size.
func extractHDROPPaths(pDataObj uintptr) []string {
	fe := formatETC{
		cfFormat: cfHDROP,
		dwAspect: dvaspectContent,
		lindex:   -1,
		tymed:    tymedHGlobal,
	}
	var medium stgMEDIUM

	vtblPtr := *(*uintptr)(unsafe.Pointer(pDataObj))
	getData := *(*uintptr)(unsafe.Pointer(vtblPtr + 3*unsafe.Sizeof(uintptr(0))))
	ret, _, _ := syscall.SyscallN(getData, pDataObj, uintptr(unsafe.Pointer(&fe)), uintptr(unsafe.Pointer(&medium)))
	if ret != comSOK {
		Log.Warn("extractHDROPPaths: GetData failed", "hresult", fmt.Sprintf("0x%x", ret))
		return nil
	}
	defer procReleaseStgMedium.Call(uintptr(unsafe.Pointer(&medium)))

	hdrop := medium.hGlobal
	count, _, _ := procDragQueryFileW.Call(hdrop, 0xFFFFFFFF, 0, 0)

	paths := make([]string, 0, count)
	buf := make([]uint16, 4096)
	for i := uintptr(0); i < count; i++ {
		n, _, _ := procDragQueryFileW.Call(hdrop, i, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
		if n > 0 {
			paths = append(paths, syscall.UTF16ToString(buf[:n]))
		}
	}
	return paths
}

// ── Native source ──────────────────────────────────────────────────────────

const (
	wmQuit     = 0x0012
	pmNoRemove = 0

	// WebView2 creates its Chrome_WidgetWin_0 children some time after
	// the DOM is ready; wait this long before settling for the parent.
	chromeWaitTimeout  = 10 * time.Second
	chromePollInterval = 200 * time.Millisecond
)

// msg mirrors the Win32 MSG structure.
type msg struct {
	hwnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	ptX, ptY int32
	lPrivate uint32
}

// oleDropSource registers a custom IDropTarget on the WebView2 content
// window. It intercepts OLE file drops at the Win32 level and reports the
// full enter/over/leave/drop sequence.
//
// OLE drag-drop needs an STA thread that initialized OLE, registered the
// target and keeps pumping messages, so each subscription owns a locked
// OS thread for its whole lifetime.
type oleDropSource struct {
	title string
}

func newNativeDropSource(context.Context) dropzone.NativeSource {
	return oleDropSource{title: AppTitle}
}

func (s oleDropSource) Subscribe(ctx context.Context, fn func(dropzone.NativeEvent)) (func(), error) {
	t := &oleThread{done: make(chan struct{})}
	ready := make(chan error, 1)
	go t.run(ctx, s.title, fn, ready)
	if err := <-ready; err != nil {
		<-t.done
		return nil, err
	}
	return t.stop, nil
}

// oleThread is the STA thread owning one registered drop target.
type oleThread struct {
	tid  uint32
	done chan struct{}
	once sync.Once
}

func (t *oleThread) run(ctx context.Context, title string, fn func(dropzone.NativeEvent), ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(t.done)

	t.tid = windows.GetCurrentThreadId()

	// Wails only calls CoInitializeEx on its own thread, which is not
	// enough for OLE drag-drop. S_FALSE (already initialized) is fine.
	ret, _, _ := procOleInitialize.Call(0)
	if hresultFailed(ret) {
		Log.Warn("OleInitialize failed", "hresult", fmt.Sprintf("0x%x", ret))
		ready <- fmt.Errorf("OleInitialize: hresult 0x%x", ret)
		return
	}
	defer procOleUninitialize.Call()

	target := &goDropTarget{lpVtbl: dropVtbl(), refCount: 1, emit: fn}
	liveMu.Lock()
	live[target] = struct{}{}
	liveMu.Unlock()
	defer func() {
		liveMu.Lock()
		delete(live, target)
		liveMu.Unlock()
	}()

	hwnd, err := registerDropTarget(ctx, title, target)
	if err != nil {
		ready <- err
		return
	}
	defer procRevokeDragDrop.Call(hwnd)

	// Force the thread's message queue into existence before stop can
	// post WM_QUIT to it.
	var m msg
	pPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmNoRemove)
	ready <- nil

	for {
		r, _, _ := pGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			Log.Debug("OLE drop thread exiting", "hwnd", hwnd)
			return
		}
		pTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		pDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

// stop ends the message loop; the thread revokes the target on its way out.
func (t *oleThread) stop() {
	t.once.Do(func() {
		ret, _, err := pPostThreadMessageW.Call(uintptr(t.tid), wmQuit, 0, 0)
		if ret == 0 {
			Log.Warn("PostThreadMessageW failed", "tid", t.tid, "error", err)
			return
		}
		<-t.done
	})
}

// registerDropTarget waits for the WebView's Chrome_WidgetWin_0 children
// and registers target on the first that accepts it, falling back to the
// top-level window.
func registerDropTarget(ctx context.Context, title string, target *goDropTarget) (uintptr, error) {
	var hwnd uintptr
	var children []uintptr
	pollUntil(ctx, chromePollInterval, chromeWaitTimeout, func() bool {
		hwnd = findOwnWindow(title)
		if hwnd == 0 {
			return false
		}
		children = findAllChromeWidgetChildren(hwnd)
		return len(children) > 0
	})
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if hwnd == 0 {
		return 0, errWindowNotFound
	}
	Log.Debug("找到拖放候选窗口", "children", len(children))

	var ret uintptr
	for _, h := range append(children, hwnd) {
		procRevokeDragDrop.Call(h) // ignore error — may not have one
		ret, _, _ = procRegisterDragDrop.Call(h, uintptr(unsafe.Pointer(target)))
		if ret == comSOK {
			Log.Info("自定义拖放处理器注册成功", "hwnd", h, "topLevel", h == hwnd)
			return h, nil
		}
		Log.Warn("RegisterDragDrop failed", "hwnd", h, "hresult", fmt.Sprintf("0x%x", ret))
	}
	return 0, fmt.Errorf("RegisterDragDrop: hresult 0x%x", ret)
}

func hresultFailed(hr uintptr) bool {
	return int32(uint32(hr)) < 0
}

// findOwnWindow locates the top-level window with title that belongs to this process.
func findOwnWindow(title string) uintptr {
	t, _ := windows.UTF16PtrFromString(title)
	hwnd, _, _ := pFindWindowW.Call(0, uintptr(unsafe.Pointer(t)))
	if hwnd == 0 {
		return 0
	}
	var pid uint32
	pGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid != uint32(os.Getpid()) {
		return 0
	}
	return hwnd
}

// enumChildProc is created once; syscall.NewCallback slots are never freed,
// so polling for the WebView children must not allocate a new one each time.
var (
	enumMu        sync.Mutex
	enumFound     []uintptr
	enumChildProc = syscall.NewCallback(func(childHwnd, lParam uintptr) uintptr {
		var className [256]uint16
		pGetClassNameW.Call(childHwnd, uintptr(unsafe.Pointer(&className[0])), 256)
		if syscall.UTF16ToString(className[:]) == "Chrome_WidgetWin_0" {
			enumFound = append(enumFound, childHwnd)
		}
		return 1 // continue to find all
	})
)

func findAllChromeWidgetChildren(parentHwnd uintptr) []uintptr {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumFound = nil
	pEnumChildWindows.Call(parentHwnd, enumChildProc, 0)
	found := enumFound
	enumFound = nil
	return found
}
