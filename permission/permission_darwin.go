package permission

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework ApplicationServices -framework AVFoundation -framework Foundation
#import <CoreGraphics/CoreGraphics.h>
#import <ApplicationServices/ApplicationServices.h>
#import <AVFoundation/AVFoundation.h>

static bool isTrusted() {
    return AXIsProcessTrusted();
}

static bool hasScreenRecording() {
    return CGPreflightScreenCaptureAccess();
}

static void requestScreenRecording() {
    CGRequestScreenCaptureAccess();
}

// 0 unknown, 1 granted, 2 denied
static int microphoneStatus() {
    AVAuthorizationStatus s = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    switch (s) {
    case AVAuthorizationStatusAuthorized:
        return 1;
    case AVAuthorizationStatusDenied:
    case AVAuthorizationStatusRestricted:
        return 2;
    default:
        return 0;
    }
}
*/
import "C"

func boolStatus(ok C.bool) Status {
	if bool(ok) {
		return Granted
	}
	return Denied
}

func accessibility() Status   { return boolStatus(C.isTrusted()) }
func screenRecording() Status { return boolStatus(C.hasScreenRecording()) }
func requestScreenCapture()   { C.requestScreenRecording() }

func microphone() Status {
	switch C.microphoneStatus() {
	case 1:
		return Granted
	case 2:
		return Denied
	default:
		return Unknown
	}
}
