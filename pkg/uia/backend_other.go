//go:build !windows && !linux

package uia

// unsupportedBackend 当前平台没有原生无障碍适配器时的占位实现
// macOS 需要 AX API 的 cgo 适配，后续版本补充；测试和演练请使用 simulate 后端
type unsupportedBackend struct{}

// newPlatformBackend 当前平台不支持原生后端
func newPlatformBackend() (Backend, error) {
	return nil, NewError(KindPlatform, "当前平台暂不支持原生无障碍后端")
}

func (unsupportedBackend) Name() string    { return "unsupported" }
func (unsupportedBackend) Supported() bool { return false }

func (unsupportedBackend) Root() (Element, error) {
	return nil, NewError(KindPlatform, "当前平台暂不支持原生无障碍后端")
}

func (unsupportedBackend) Windows(pid int) ([]Element, error) {
	return nil, NewError(KindPlatform, "当前平台暂不支持原生无障碍后端")
}

func (unsupportedBackend) Close() error { return nil }
