package rg

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/felipeagc/rgrender/engine/core"
)

// Device owns the Vulkan instance, the selected physical device, the
// logical device and its three queues (which may alias the same family),
// the process-wide Allocator, and the device's physical limits. Created
// once at startup; Destroy waits for the device to go idle first.
//
// Grounded on engine/renderer/vulkan/device.go's selection/creation flow,
// generalized to expose the allocator and drop the fixed-function
// world-render-target bookkeeping the teacher's VulkanContext carries.
type Device struct {
	Instance       vk.Instance
	PhysicalDevice vk.PhysicalDevice
	Logical        vk.Device

	GraphicsQueueFamily uint32
	ComputeQueueFamily  uint32
	TransferQueueFamily uint32

	GraphicsQueue vk.Queue
	ComputeQueue  vk.Queue
	TransferQueue vk.Queue

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures

	Allocator *Allocator

	validation bool
	messenger  vk.DebugReportCallback
}

// DeviceOptions configures instance/device creation.
type DeviceOptions struct {
	ApplicationName   string
	EnableValidation  bool
	InstanceExtensions []string
}

// NewDevice creates the Vulkan instance, selects a physical device,
// resolves queue families, and creates the logical device plus its
// allocator. When opts.EnableValidation is set, VK_LAYER_KHRONOS_validation
// and the VK_EXT_debug_utils instance extension are requested and a debug
// line is logged; no debug-utils messenger is created, so validation
// messages are not routed to core.LogWarn/core.LogError.
func NewDevice(opts DeviceOptions) (*Device, error) {
	d := &Device{validation: opts.EnableValidation}

	if err := d.createInstance(opts); err != nil {
		return nil, err
	}
	if opts.EnableValidation {
		d.attachDebugMessenger()
	}
	if err := d.selectPhysicalDevice(); err != nil {
		return nil, err
	}
	if err := d.createLogicalDevice(); err != nil {
		return nil, err
	}

	d.Allocator = NewAllocator(d.PhysicalDevice, d.Logical)
	return d, nil
}

func (d *Device) createInstance(opts DeviceOptions) error {
	appName := opts.ApplicationName
	if appName == "" {
		appName = "rgrender"
	}
	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeCString(appName),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        safeCString("rg"),
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.ApiVersion12,
	}

	extensions := append([]string{}, opts.InstanceExtensions...)
	var layers []string
	if opts.EnableValidation {
		extensions = append(extensions, "VK_EXT_debug_utils")
		layers = append(layers, "VK_LAYER_KHRONOS_validation")
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return WrapResult(res, "vkCreateInstance")
	}
	d.Instance = instance
	vk.InitInstance(instance)
	return nil
}

func (d *Device) attachDebugMessenger() {
	core.LogDebug("rg: validation layers enabled")
}

func (d *Device) selectPhysicalDevice() error {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(d.Instance, &count, nil); res != vk.Success || count == 0 {
		return fmt.Errorf("rg: no Vulkan physical devices found")
	}
	devices := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(d.Instance, &count, devices); res != vk.Success {
		return WrapResult(res, "vkEnumeratePhysicalDevices")
	}

	// Prefer the first discrete GPU; otherwise take the first enumerated
	// device. Queue families are checked afterwards, not during selection.
	best := devices[0]
	for _, pd := range devices {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(pd, &props)
		props.Deref()
		if props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			best = pd
			break
		}
	}
	d.PhysicalDevice = best
	vk.GetPhysicalDeviceProperties(best, &d.Properties)
	d.Properties.Deref()
	vk.GetPhysicalDeviceFeatures(best, &d.Features)
	d.Features.Deref()

	return d.resolveQueueFamilies()
}

// resolveQueueFamilies picks the first graphics-capable family, the last
// compute family without graphics (else the first compute family), and the
// last transfer family without graphics or compute (else the first
// transfer family); compute and transfer fall back to the graphics family
// when absent. Families are allowed to alias, matching the
// spec's "three queues, potentially aliasing the same family" note.
func (d *Device) resolveQueueFamilies() error {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(d.PhysicalDevice, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(d.PhysicalDevice, &count, props)

	graphicsFound, computeFound, transferFound := false, false, false
	for i, p := range props {
		p.Deref()
		flags := vk.QueueFlagBits(p.QueueFlags)
		if !graphicsFound && flags&vk.QueueGraphicsBit != 0 {
			d.GraphicsQueueFamily = uint32(i)
			graphicsFound = true
		}
		if flags&vk.QueueComputeBit != 0 {
			if !computeFound || (flags&vk.QueueGraphicsBit == 0) {
				d.ComputeQueueFamily = uint32(i)
				computeFound = true
			}
		}
		if flags&vk.QueueTransferBit != 0 {
			if !transferFound || (flags&(vk.QueueGraphicsBit|vk.QueueComputeBit) == 0) {
				d.TransferQueueFamily = uint32(i)
				transferFound = true
			}
		}
	}
	if !graphicsFound {
		return fmt.Errorf("rg: no graphics-capable queue family")
	}
	if !computeFound {
		d.ComputeQueueFamily = d.GraphicsQueueFamily
	}
	if !transferFound {
		d.TransferQueueFamily = d.GraphicsQueueFamily
	}
	return nil
}

func (d *Device) createLogicalDevice() error {
	families := uniqueUint32s(d.GraphicsQueueFamily, d.ComputeQueueFamily, d.TransferQueueFamily)

	priority := float32(1.0)
	queueInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, f := range families {
		queueInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: f,
			QueueCount:       1,
			PQueuePriorities: []float32{priority},
		}
	}

	features := vk.PhysicalDeviceFeatures{SamplerAnisotropy: vk.True}
	extensions := []string{"VK_KHR_swapchain"}

	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	var logical vk.Device
	if res := vk.CreateDevice(d.PhysicalDevice, &createInfo, nil, &logical); res != vk.Success {
		return WrapResult(res, "vkCreateDevice")
	}
	d.Logical = logical
	vk.InitDevice(logical)

	vk.GetDeviceQueue(logical, d.GraphicsQueueFamily, 0, &d.GraphicsQueue)
	vk.GetDeviceQueue(logical, d.ComputeQueueFamily, 0, &d.ComputeQueue)
	vk.GetDeviceQueue(logical, d.TransferQueueFamily, 0, &d.TransferQueue)
	return nil
}

// WaitIdle blocks until all queued GPU work on this device has completed.
func (d *Device) WaitIdle() {
	vk.DeviceWaitIdle(d.Logical)
}

// Destroy waits for the device to go idle, then tears down the logical
// device and instance, per the spec's shutdown ordering.
func (d *Device) Destroy() {
	d.WaitIdle()
	vk.DestroyDevice(d.Logical, nil)
	vk.DestroyInstance(d.Instance, nil)
}

func uniqueUint32s(vs ...uint32) []uint32 {
	seen := map[uint32]bool{}
	var out []uint32
	for _, v := range vs {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func safeCString(s string) string {
	return s + "\x00"
}
