package window

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework Foundation
#import <CoreGraphics/CoreGraphics.h>
#import <Foundation/Foundation.h>

typedef struct {
    unsigned int id;
    int layer;
    double alpha;
    double x, y, w, h;
    char owner[128];
} windowEntry;

static void pointerLocation(double *x, double *y) {
    CGEventRef ev = CGEventCreate(NULL);
    CGPoint p = CGEventGetLocation(ev);
    CFRelease(ev);
    *x = p.x;
    *y = p.y;
}

// listWindows fills out with up to max on-screen windows, front to back, and
// returns the number written.
static int listWindows(windowEntry *out, int max) {
    @autoreleasepool {
        CFArrayRef list = CGWindowListCopyWindowInfo(
            kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
            kCGNullWindowID);
        if (list == NULL) {
            return -1;
        }
        NSArray *windows = CFBridgingRelease(list);
        int n = 0;
        for (NSDictionary *w in windows) {
            if (n >= max) {
                break;
            }
            windowEntry *e = &out[n];
            e->id = [w[(id)kCGWindowNumber] unsignedIntValue];
            e->layer = [w[(id)kCGWindowLayer] intValue];
            NSNumber *alpha = w[(id)kCGWindowAlpha];
            e->alpha = alpha ? [alpha doubleValue] : 1.0;

            CGRect r = CGRectZero;
            CFDictionaryRef bounds = (__bridge CFDictionaryRef)w[(id)kCGWindowBounds];
            if (bounds != NULL) {
                CGRectMakeWithDictionaryRepresentation(bounds, &r);
            }
            e->x = r.origin.x;
            e->y = r.origin.y;
            e->w = r.size.width;
            e->h = r.size.height;

            NSString *owner = w[(id)kCGWindowOwnerName];
            const char *s = owner ? [owner UTF8String] : "";
            strlcpy(e->owner, s, sizeof(e->owner));
            n++;
        }
        return n;
    }
}
*/
import "C"

import "go.aimuz.me/murmur/internal/types"

const maxWindows = 256

func snapshot() (float64, float64, []Info, error) {
	var px, py C.double
	C.pointerLocation(&px, &py)

	buf := make([]C.windowEntry, maxWindows)
	n := int(C.listWindows(&buf[0], maxWindows))
	if n < 0 {
		return 0, 0, nil, ErrNoWindow
	}

	windows := make([]Info, 0, n)
	for _, e := range buf[:n] {
		windows = append(windows, Info{
			ID:    uint32(e.id),
			Owner: C.GoString(&e.owner[0]),
			Layer: int(e.layer),
			Alpha: float64(e.alpha),
			Bounds: types.Rect{
				X: int(e.x),
				Y: int(e.y),
				W: int(e.w),
				H: int(e.h),
			},
		})
	}
	return float64(px), float64(py), windows, nil
}
