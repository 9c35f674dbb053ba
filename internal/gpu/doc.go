// Package gpu drives the wallpaper shader on the GPU through the
// gogpu/wgpu HAL.
//
// # Components
//
//   - Instance: the Vulkan HAL instance. Creates surfaces from Wayland
//     handles and opens one device per adapter, shared by all outputs.
//   - Context: an opened device and queue, exposed as a
//     gpucontext.DeviceProvider.
//   - Surface: a configured presentation surface for one layer surface.
//   - Pipeline: the user shader, its bind groups and uniform buffers, and
//     the per-frame encode/submit/wait sequence.
//
// # Bind Groups
//
//	group 0, binding 0:  uniform, 16 bytes, f32 seconds at offset 0
//	group 1, binding 0:  uniform, N x vec4<f32> pointer trail
//	group 2, binding c:  read-only storage, array<f32> for audio channel c
//
// All three groups are bound on every draw. The audio buffers are always
// created and stay zeroed while capture is off, so one shader works with
// and without audio.
package gpu
