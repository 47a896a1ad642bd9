package screenshot

/*
#cgo CFLAGS: -x objective-c -mmacosx-version-min=13.0 -Wno-deprecated-declarations
#cgo LDFLAGS: -framework CoreGraphics -framework ImageIO -framework CoreServices -framework Foundation
#import <CoreGraphics/CoreGraphics.h>
#import <ImageIO/ImageIO.h>
#import <CoreServices/CoreServices.h>
#import <Foundation/Foundation.h>
#include <stdlib.h>

// 0 ok, 1 no image, 2 cannot create destination, 3 write failed
static int captureWindow(unsigned int windowID, const char *path) {
    @autoreleasepool {
        CGImageRef img = CGWindowListCreateImage(CGRectNull,
            kCGWindowListOptionIncludingWindow, windowID,
            kCGWindowImageBoundsIgnoreFraming | kCGWindowImageBestResolution);
        if (img == NULL) {
            return 1;
        }
        NSURL *url = [NSURL fileURLWithPath:[NSString stringWithUTF8String:path]];
        CGImageDestinationRef dst = CGImageDestinationCreateWithURL((__bridge CFURLRef)url, kUTTypePNG, 1, NULL);
        if (dst == NULL) {
            CGImageRelease(img);
            return 2;
        }
        CGImageDestinationAddImage(dst, img, NULL);
        bool ok = CGImageDestinationFinalize(dst);
        CFRelease(dst);
        CGImageRelease(img);
        return ok ? 0 : 3;
    }
}
*/
import "C"

import (
	"context"
	"fmt"
	"unsafe"
)

func captureWindowNative(ctx context.Context, windowID uint32, out string) error {
	done := make(chan C.int, 1)
	go func() {
		cpath := C.CString(out)
		defer C.free(unsafe.Pointer(cpath))
		done <- C.captureWindow(C.uint(windowID), cpath)
	}()

	select {
	case rc := <-done:
		if rc != 0 {
			return fmt.Errorf("native window capture failed (code %d)", int(rc))
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
