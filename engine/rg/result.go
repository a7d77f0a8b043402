package rg

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/felipeagc/rgrender/engine/core"
)

// CheckResult logs and fatally aborts on any VkResult < 0, following the
// "runtime Vulkan failures are fatal" policy: only construction paths
// return errors to callers, everything recorded mid-frame is unrecoverable.
func CheckResult(result vk.Result, context string) {
	if result < 0 {
		core.LogFatal("%s: %s", context, vulkanResultString(result))
	}
}

// WrapResult turns a VkResult into a Go error for construction paths, where
// the spec requires a nullable/returnable failure instead of a fatal abort.
func WrapResult(result vk.Result, context string) error {
	if result != vk.Success {
		return fmt.Errorf("%s: %s", context, vulkanResultString(result))
	}
	return nil
}

func vulkanResultString(result vk.Result) string {
	switch result {
	case vk.Success:
		return "VK_SUCCESS"
	case vk.NotReady:
		return "VK_NOT_READY"
	case vk.Timeout:
		return "VK_TIMEOUT"
	case vk.ErrorOutOfHostMemory:
		return "VK_ERROR_OUT_OF_HOST_MEMORY"
	case vk.ErrorOutOfDeviceMemory:
		return "VK_ERROR_OUT_OF_DEVICE_MEMORY"
	case vk.ErrorDeviceLost:
		return "VK_ERROR_DEVICE_LOST"
	case vk.ErrorInitializationFailed:
		return "VK_ERROR_INITIALIZATION_FAILED"
	case vk.ErrorOutOfDate:
		return "VK_ERROR_OUT_OF_DATE_KHR"
	case vk.Suboptimal:
		return "VK_SUBOPTIMAL_KHR"
	case vk.ErrorSurfaceLost:
		return "VK_ERROR_SURFACE_LOST_KHR"
	default:
		return fmt.Sprintf("VkResult(%d)", int32(result))
	}
}

// ErrAllocationFailed is returned by the allocator when no memory type or
// block can satisfy a request.
var ErrAllocationFailed = fmt.Errorf("rg: allocation failed")
