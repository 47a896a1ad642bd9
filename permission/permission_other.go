//go:build !darwin

package permission

func accessibility() Status   { return Unknown }
func screenRecording() Status { return Unknown }
func microphone() Status      { return Unknown }
func requestScreenCapture()   {}
