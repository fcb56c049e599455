package camera

import (
	"math"
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	forward  mgl32.Vec3
	up       mgl32.Vec3

	fov          float32
	aspect       float32
	near         float32
	far          float32
	orthographic bool
	orthoSize    float32

	viewMatrix           mgl32.Mat4
	projectionMatrix     mgl32.Mat4
	viewProjectionMatrix mgl32.Mat4
}

// Camera defines the interface for the camera consumed by the cluster culler.
// The camera holds perspective or orthographic settings and recomputes its view and
// projection matrices whenever one of them changes.
type Camera interface {
	// Position returns the world-space camera position.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// Forward returns the normalized world-space viewing direction.
	//
	// Returns:
	//   - mgl32.Vec3: the forward vector
	Forward() mgl32.Vec3

	// Up returns the normalized world-space up vector, orthogonalized against Forward.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// Right returns the normalized world-space right vector.
	//
	// Returns:
	//   - mgl32.Vec3: the right vector
	Right() mgl32.Vec3

	// Fov returns the vertical field of view in radians. Meaningless for orthographic cameras.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance. May be +Inf.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// Orthographic reports whether the camera uses an orthographic projection.
	//
	// Returns:
	//   - bool: true for orthographic, false for perspective
	Orthographic() bool

	// OrthographicSize returns the half-height of the orthographic view volume in world units.
	//
	// Returns:
	//   - float32: the orthographic half-height
	OrthographicSize() float32

	// ViewMatrix returns the current world-to-view matrix (right-handed, looking down -Z).
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the current projection matrix (OpenGL clip-space convention).
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns Projection * View.
	//
	// Returns:
	//   - mgl32.Mat4: the combined view-projection matrix
	ViewProjectionMatrix() mgl32.Mat4

	// SetPosition moves the camera and recomputes matrices.
	//
	// Parameters:
	//   - x, y, z: world-space position
	SetPosition(x, y, z float32)

	// LookAt orients the camera toward a world-space target and recomputes matrices.
	//
	// Parameters:
	//   - x, y, z: world-space target
	LookAt(x, y, z float32)

	// SetUp sets the camera's up vector and recomputes matrices.
	//
	// Parameters:
	//   - x, y, z: up vector components
	SetUp(x, y, z float32)

	// SetFov sets the vertical field of view in radians and recomputes matrices.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance and recomputes matrices.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far clipping plane distance and recomputes matrices.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// SetOrthographic switches between orthographic and perspective projection.
	//
	// Parameters:
	//   - orthographic: true for orthographic
	//   - size: orthographic half-height in world units (ignored for perspective)
	SetOrthographic(orthographic bool, size float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings: positioned at the origin,
// looking down -Z with a 45 degree vertical field of view.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:        &sync.Mutex{},
		position:  mgl32.Vec3{0, 0, 0},
		forward:   mgl32.Vec3{0, 0, -1},
		up:        mgl32.Vec3{0, 1, 0},
		fov:       45.0 * (math.Pi / 180.0), // radians
		aspect:    1.0,
		near:      0.1,
		far:       100.0,
		orthoSize: 5.0,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Forward() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forward
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.right().Cross(c.forward)
}

func (c *cameraImpl) Right() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.right()
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Orthographic() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orthographic
}

func (c *cameraImpl) OrthographicSize() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orthoSize
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) SetPosition(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = mgl32.Vec3{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) LookAt(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookAt(mgl32.Vec3{x, y, z})
	c.updateMatrices()
}

func (c *cameraImpl) SetUp(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = mgl32.Vec3{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) SetOrthographic(orthographic bool, size float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthographic = orthographic
	if size > 0 {
		c.orthoSize = size
	}
	c.updateMatrices()
}

// lookAt points the forward vector at target. A target at the camera position keeps the
// previous forward vector. Caller must hold the mutex.
func (c *cameraImpl) lookAt(target mgl32.Vec3) {
	dir := target.Sub(c.position)
	if dir.Len() > 0 {
		c.forward = dir.Normalize()
	}
}

// right returns the camera's right vector, choosing a fallback up axis when forward and up
// are parallel. Caller must hold the mutex.
func (c *cameraImpl) right() mgl32.Vec3 {
	r := c.forward.Cross(c.up)
	if r.Len() < 1e-6 {
		r = c.forward.Cross(mgl32.Vec3{1, 0, 0})
		if r.Len() < 1e-6 {
			r = c.forward.Cross(mgl32.Vec3{0, 0, 1})
		}
	}
	return r.Normalize()
}

// updateMatrices recalculates the view, projection and view-projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	right := c.right()
	up := right.Cross(c.forward)
	c.viewMatrix = mgl32.LookAtV(c.position, c.position.Add(c.forward), up)

	if c.orthographic {
		h := c.orthoSize
		w := h * c.aspect
		c.projectionMatrix = mgl32.Ortho(-w, w, -h, h, c.near, c.far)
	} else if math32.IsInf(c.far, 1) {
		c.projectionMatrix = infinitePerspective(c.fov, c.aspect, c.near)
	} else {
		c.projectionMatrix = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
	}

	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
}

// infinitePerspective builds an OpenGL-convention perspective matrix whose far plane sits at
// infinity.
func infinitePerspective(fovY, aspect, near float32) mgl32.Mat4 {
	f := 1.0 / math32.Tan(fovY/2.0)
	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, -1, -1,
		0, 0, -2 * near, 0,
	}
}
