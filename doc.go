// Package shaderpaper renders a WGSL fragment shader as an animated
// background on Wayland outputs through the wlr layer-shell protocol.
//
// # Overview
//
// Every frame the shader receives three inputs:
//   - the monotonic time in seconds since its surface was created, at @group(0)
//   - a trail of recent pointer positions, at @group(1)
//   - per-channel audio spectra captured from an input device, at @group(2)
//
// The program itself lives in cmd/shaderpaper. This package only holds the
// version and the shared logger; the work is done by the internal packages.
//
// # Shader Contract
//
//	@group(0) @binding(0) var<uniform> time: f32;
//	@group(1) @binding(0) var<uniform> pointer: array<vec4<f32>, N>;
//	@group(2) @binding(0) var<storage, read> audio_l: array<f32>;
//	@group(2) @binding(1) var<storage, read> audio_r: array<f32>;
//
// The vertex stage is vs_main and gets no vertex buffer; it is drawn with
// three vertices and is expected to produce a full-screen triangle from the
// vertex index. The fragment stage is fs_main.
//
// A pointer entry is (x/width, y/height, 0, 0) with the newest sample first,
// or (-100, -100, 0, 0) when the pointer is not over the surface.
//
// # Threading
//
// The Wayland event loop and all GPU work run on one OS thread. Audio
// capture runs on its own goroutine and hands frames to the renderer
// through a single-slot mailbox in which the latest frame wins.
package shaderpaper

// Version is the current version of shaderpaper.
const Version = "0.1.0"
