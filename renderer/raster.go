package renderer

import (
	"context"
	"fmt"
	"image"
	"math"
	"runtime"
	"time"

	"github.com/achilleasa/shapeview/asset/scene"
	"github.com/achilleasa/shapeview/asset/texture"
	"github.com/achilleasa/shapeview/log"
	"github.com/achilleasa/shapeview/types"
	"golang.org/x/sync/errgroup"
)

const (
	// Depth encoding: 1 - (z + depthOffset) * depthScale.
	depthOffset float32 = -0.7
	depthScale  float32 = 0.8

	// Number of triangles to process between context checks.
	interruptCheckInterval = 512
)

// A triangle transformed into view and screen space.
type rasterTriangle struct {
	screen   [3]types.Vec2
	invDepth [3]float32
	viewPos  [3]types.Vec3
	normals  [3]types.Vec3
	uvs      [3]types.Vec2
	hasUVs   bool
	material *scene.Material

	// Screen-space bounds.
	min types.Vec2
	max types.Vec2
}

// The render target shared by all block workers. Workers write to disjoint
// rows so no locking is required.
type renderTarget struct {
	frame   *Frame
	zBuffer []float32
	width   int
	height  int
	near    float32
	far     float32

	// Lights in view space.
	lights []Light
}

// A z-buffer rasterizer that renders frame blocks concurrently on the CPU.
// A Rasterizer must not be used by multiple goroutines at the same time.
type Rasterizer struct {
	logger    log.Logger
	scene     *scene.Scene
	scheduler BlockScheduler
	opts      Options
	stats     FrameStats
}

// Create a new rasterizer for a scene. If scheduler is nil, the perfect
// scheduler is used.
func NewRasterizer(sc *scene.Scene, scheduler BlockScheduler, opts Options) (*Rasterizer, error) {
	if sc == nil || sc.IsEmpty() {
		return nil, ErrEmptyScene
	}
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return nil, ErrInvalidFrameSize
	}
	if opts.Supersample == 0 {
		opts.Supersample = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if len(opts.Lights) == 0 {
		opts.Lights = DefaultLights()
	}
	if scheduler == nil {
		scheduler = PerfectScheduler()
	}

	return &Rasterizer{
		logger:    log.New("rasterizer"),
		scene:     sc,
		scheduler: scheduler,
		opts:      opts,
	}, nil
}

// Get render statistics for the last frame.
func (r *Rasterizer) Stats() FrameStats {
	return r.stats
}

// Render frame as seen by cam. The camera projection is set up internally for
// the supersampled frame size so the caller's camera is left untouched.
func (r *Rasterizer) Render(ctx context.Context, cam *scene.Camera) (*Frame, error) {
	if cam == nil {
		return nil, ErrCameraNotDefined
	}
	start := time.Now()

	sampleW := r.opts.FrameW * r.opts.Supersample
	sampleH := r.opts.FrameH * r.opts.Supersample
	renderCam := *cam
	renderCam.SetupProjection(sampleW, sampleH)

	target := r.newRenderTarget(&renderCam, int(sampleW), int(sampleH))
	tris := r.prepareTriangles(&renderCam, target)

	numWorkers := r.opts.Workers
	if numWorkers > int(sampleH) {
		numWorkers = int(sampleH)
	}
	speeds := make([]float32, numWorkers)
	for idx := range speeds {
		speeds[idx] = 1.0
	}
	blockAssignment := r.scheduler.Schedule(speeds, r.stats.Blocks, sampleH)

	blockStats := make([]BlockStat, numWorkers)
	group, groupCtx := errgroup.WithContext(ctx)
	var blockY uint32 = 0
	for idx, blockH := range blockAssignment {
		idx, blockH := idx, blockH
		y := blockY
		blockY += blockH
		group.Go(func() error {
			blockStart := time.Now()
			count, err := target.renderBlock(groupCtx, tris, int(y), int(y+blockH))
			if err != nil {
				return err
			}
			blockStats[idx] = BlockStat{
				Id:           fmt.Sprintf("cpu-%d", idx),
				BlockY:       y,
				BlockH:       blockH,
				FramePercent: 100.0 * float32(blockH) / float32(sampleH),
				Triangles:    count,
				RenderTime:   time.Since(blockStart),
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	frame := target.frame
	if r.opts.Supersample > 1 {
		frame = frame.downsample(int(r.opts.FrameW), int(r.opts.FrameH))
	}

	r.stats = FrameStats{
		Blocks:     blockStats,
		RenderTime: time.Since(start),
	}
	r.logger.Debugf("rendered %d triangles in %d blocks in %d ms", len(tris), numWorkers, r.stats.RenderTime.Nanoseconds()/1e6)
	return frame, nil
}

func (r *Rasterizer) newRenderTarget(cam *scene.Camera, width, height int) *renderTarget {
	zBuffer := make([]float32, width*height)
	for idx := range zBuffer {
		zBuffer[idx] = math.MaxFloat32
	}

	viewRot := cam.ViewMat.Mat3()
	lights := make([]Light, len(r.opts.Lights))
	for idx, light := range r.opts.Lights {
		lights[idx] = Light{
			Direction: viewRot.Mul3x1(light.Direction).Normalize(),
			Energy:    light.Energy,
		}
	}

	return &renderTarget{
		frame:   newFrame(width, height),
		zBuffer: zBuffer,
		width:   width,
		height:  height,
		near:    cam.Near,
		far:     cam.Far,
		lights:  lights,
	}
}

// Transform scene triangles to view and screen space. Triangles with a corner
// in front of the near plane are rejected as they are not clipped.
func (r *Rasterizer) prepareTriangles(cam *scene.Camera, target *renderTarget) []rasterTriangle {
	viewRot := cam.ViewMat.Mat3()
	fw, fh := float32(target.width), float32(target.height)

	tris := make([]rasterTriangle, 0, r.scene.NumTriangles())
	for _, mesh := range r.scene.Meshes {
		for triIndex := range mesh.Triangles {
			tri := &mesh.Triangles[triIndex]
			rt := rasterTriangle{
				uvs:      tri.UVs,
				hasUVs:   tri.HasUVs,
				material: r.scene.TriangleMaterial(tri),
				min:      types.Vec2{math.MaxFloat32, math.MaxFloat32},
				max:      types.Vec2{-math.MaxFloat32, -math.MaxFloat32},
			}

			visible := true
			for corner, v := range r.scene.TriangleVertices(tri) {
				viewPos := cam.ViewMat.TransformPoint(v)
				depth := -viewPos[2]
				if depth < cam.Near {
					visible = false
					break
				}

				clip := cam.ProjMat.Mul4x1(viewPos.Vec4(1))
				screen := types.Vec2{
					(clip[0]/clip[3] + 1) * 0.5 * fw,
					fh - (clip[1]/clip[3]+1)*0.5*fh,
				}
				rt.screen[corner] = screen
				rt.invDepth[corner] = 1.0 / depth
				rt.viewPos[corner] = viewPos
				rt.min = types.Vec2{minf(rt.min[0], screen[0]), minf(rt.min[1], screen[1])}
				rt.max = types.Vec2{maxf(rt.max[0], screen[0]), maxf(rt.max[1], screen[1])}
			}
			if !visible || rt.max[0] < 0 || rt.max[1] < 0 || rt.min[0] >= fw || rt.min[1] >= fh {
				continue
			}

			if tri.HasNormals {
				for corner := range tri.Normals {
					rt.normals[corner] = viewRot.Mul3x1(tri.Normals[corner])
				}
			} else {
				faceNormal := rt.viewPos[1].Sub(rt.viewPos[0]).Cross(rt.viewPos[2].Sub(rt.viewPos[0])).Normalize()
				rt.normals = [3]types.Vec3{faceNormal, faceNormal, faceNormal}
			}

			tris = append(tris, rt)
		}
	}

	return tris
}

// Rasterize all triangles overlapping rows [y0, y1). Returns the number of
// triangles that overlap the block.
func (t *renderTarget) renderBlock(ctx context.Context, tris []rasterTriangle, y0, y1 int) (int, error) {
	if y1 <= y0 {
		return 0, nil
	}

	count := 0
	for triIndex := range tris {
		if triIndex%interruptCheckInterval == 0 && ctx.Err() != nil {
			return count, ErrInterrupted
		}

		rt := &tris[triIndex]
		if int(rt.max[1]) < y0 || int(rt.min[1]) >= y1 {
			continue
		}
		count++
		t.rasterize(rt, y0, y1)
	}

	if ctx.Err() != nil {
		return count, ErrInterrupted
	}
	return count, nil
}

func (t *renderTarget) rasterize(rt *rasterTriangle, y0, y1 int) {
	s := rt.screen
	area := edgeFunction(s[0], s[1], s[2])
	if area > -1e-9 && area < 1e-9 {
		return
	}

	minX := clampInt(int(math.Floor(float64(rt.min[0]))), 0, t.width-1)
	maxX := clampInt(int(math.Ceil(float64(rt.max[0]))), 0, t.width-1)
	minY := clampInt(int(math.Floor(float64(rt.min[1]))), y0, y1-1)
	maxY := clampInt(int(math.Ceil(float64(rt.max[1]))), y0, y1-1)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := types.Vec2{float32(x) + 0.5, float32(y) + 0.5}
			w0 := edgeFunction(s[1], s[2], p) / area
			w1 := edgeFunction(s[2], s[0], p) / area
			w2 := edgeFunction(s[0], s[1], p) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			invDepth := w0*rt.invDepth[0] + w1*rt.invDepth[1] + w2*rt.invDepth[2]
			if invDepth <= 0 {
				continue
			}
			depth := 1.0 / invDepth
			if depth < t.near || depth > t.far {
				continue
			}

			offset := y*t.width + x
			if depth >= t.zBuffer[offset] {
				continue
			}
			t.zBuffer[offset] = depth

			// Perspective-correct barycentrics
			bary := [3]float32{
				w0 * rt.invDepth[0] * depth,
				w1 * rt.invDepth[1] * depth,
				w2 * rt.invDepth[2] * depth,
			}
			t.shade(rt, bary, depth, x, y)
		}
	}
}

// Shade a fragment and write all frame passes.
func (t *renderTarget) shade(rt *rasterTriangle, bary [3]float32, depth float32, x, y int) {
	normal := rt.normals[0].Mul(bary[0]).Add(rt.normals[1].Mul(bary[1])).Add(rt.normals[2].Mul(bary[2])).Normalize()
	viewPos := rt.viewPos[0].Mul(bary[0]).Add(rt.viewPos[1].Mul(bary[1])).Add(rt.viewPos[2].Mul(bary[2]))

	// Surfaces are lit from both sides; flip normals facing away from the camera.
	if normal.Dot(viewPos) > 0 {
		normal = normal.Mul(-1)
	}

	var uv types.Vec2
	if rt.hasUVs {
		uv = rt.uvs[0].Mul(bary[0]).Add(rt.uvs[1].Mul(bary[1])).Add(rt.uvs[2].Mul(bary[2]))
	}
	albedo := rt.material.Albedo(uv, rt.hasUVs)

	var intensity float32 = 0.0
	for _, light := range t.lights {
		if cosTheta := normal.Dot(light.Direction); cosTheta > 0 {
			intensity += cosTheta * light.Energy
		}
	}
	shaded := albedo.Mul(intensity)

	encodedDepth := 1.0 - (depth+depthOffset)*depthScale

	setPixel(t.frame.Color, x, y, texture.LinearToSRGB(shaded[0]), texture.LinearToSRGB(shaded[1]), texture.LinearToSRGB(shaded[2]))
	setPixel(t.frame.Albedo, x, y, texture.LinearToSRGB(albedo[0]), texture.LinearToSRGB(albedo[1]), texture.LinearToSRGB(albedo[2]))
	setPixel(t.frame.Depth, x, y, encodedDepth, encodedDepth, encodedDepth)
	setPixel(t.frame.Normal, x, y, normal[0]*0.5+0.5, normal[1]*0.5+0.5, normal[2]*0.5+0.5)
}

func setPixel(img *image.RGBA, x, y int, r, g, b float32) {
	offset := img.PixOffset(x, y)
	img.Pix[offset+0] = toByte(r)
	img.Pix[offset+1] = toByte(g)
	img.Pix[offset+2] = toByte(b)
	img.Pix[offset+3] = 255
}

// Twice the signed area of triangle (a, b, p).
func edgeFunction(a, b, p types.Vec2) float32 {
	return (p[0]-a[0])*(b[1]-a[1]) - (p[1]-a[1])*(b[0]-a[0])
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	} else if v > max {
		return max
	}
	return v
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
