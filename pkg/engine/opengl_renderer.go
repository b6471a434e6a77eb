package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"flightsim/internal/logger"
	"flightsim/pkg/config"
	"flightsim/pkg/terrain"
)

var skyColor = mgl32.Vec3{0.55, 0.70, 0.90}

// gpuMesh is one uploaded vertex grid
type gpuMesh struct {
	vao        uint32
	buffers    [3]uint32 // positions, colors, normals
	ebo        uint32
	indexCount int32
	originX    float32
	originZ    float32
}

// OpenGLRenderer draws the live terrain chunks and a chase view of the aircraft
type OpenGLRenderer struct {
	logger  *logger.Logger
	width   int
	height  int
	fov     float32
	farClip float32

	shaderProgram uint32
	projectionLoc int32
	viewLoc       int32
	modelLoc      int32
	lightDirLoc   int32
	fogColorLoc   int32
	fogStartLoc   int32
	fogEndLoc     int32

	chunks   map[terrain.ChunkKey]*gpuMesh
	aircraft *gpuMesh
}

// NewOpenGLRenderer creates the renderer and mirrors the store's live chunks
// onto the GPU. Must be called on the thread owning the GL context.
func NewOpenGLRenderer(cfg config.GraphicsConfig, store *terrain.ChunkStore, log *logger.Logger) (*OpenGLRenderer, error) {
	r := &OpenGLRenderer{
		logger:  log.Named("gl"),
		width:   cfg.Width,
		height:  cfg.Height,
		fov:     float32(cfg.FOVDegrees),
		farClip: float32(store.ViewDistance() * 1.2),
		chunks:  make(map[terrain.ChunkKey]*gpuMesh),
	}

	if err := r.initOpenGL(); err != nil {
		return nil, err
	}

	store.ForEach(r.upload)
	store.OnChange(func(ev terrain.ChunkEvent) {
		switch ev.Kind {
		case terrain.ChunkLoaded:
			r.upload(ev.Chunk)
		case terrain.ChunkUnloaded:
			r.dispose(ev.Key)
		}
	})
	return r, nil
}

// initOpenGL compiles the shaders and sets fixed state
func (r *OpenGLRenderer) initOpenGL() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.logger.Infof("OpenGL version %s", gl.GoStr(gl.GetString(gl.VERSION)))

	program, err := createShaderProgram(terrainVertexShaderSource, terrainFragmentShaderSource)
	if err != nil {
		return err
	}
	r.shaderProgram = program
	r.projectionLoc = gl.GetUniformLocation(program, gl.Str("projection\x00"))
	r.viewLoc = gl.GetUniformLocation(program, gl.Str("view\x00"))
	r.modelLoc = gl.GetUniformLocation(program, gl.Str("model\x00"))
	r.lightDirLoc = gl.GetUniformLocation(program, gl.Str("lightDir\x00"))
	r.fogColorLoc = gl.GetUniformLocation(program, gl.Str("fogColor\x00"))
	r.fogStartLoc = gl.GetUniformLocation(program, gl.Str("fogStart\x00"))
	r.fogEndLoc = gl.GetUniformLocation(program, gl.Str("fogEnd\x00"))

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(skyColor[0], skyColor[1], skyColor[2], 1)
	gl.Viewport(0, 0, int32(r.width), int32(r.height))

	r.aircraft = uploadMesh(aircraftMesh())
	return nil
}

// upload sends a chunk mesh to the GPU
func (r *OpenGLRenderer) upload(chunk *terrain.Chunk) {
	if _, ok := r.chunks[chunk.Key]; ok {
		r.dispose(chunk.Key)
	}
	mesh := chunk.Mesh()
	normals := gridNormals(mesh.Positions, chunk.Resolution)
	gm := uploadMesh(mesh.Positions, mesh.Colors, normals, mesh.Indices)
	ox, oz := chunk.Origin()
	gm.originX, gm.originZ = float32(ox), float32(oz)
	r.chunks[chunk.Key] = gm
}

// dispose frees the GPU buffers of a chunk
func (r *OpenGLRenderer) dispose(key terrain.ChunkKey) {
	gm, ok := r.chunks[key]
	if !ok {
		return
	}
	deleteMesh(gm)
	delete(r.chunks, key)
}

func uploadMesh(positions, colors, normals []float32, indices []uint32) *gpuMesh {
	gm := &gpuMesh{indexCount: int32(len(indices))}

	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)

	gl.GenBuffers(3, &gm.buffers[0])
	for i, data := range [][]float32{positions, colors, normals} {
		gl.BindBuffer(gl.ARRAY_BUFFER, gm.buffers[i])
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
		gl.VertexAttribPointer(uint32(i), 3, gl.FLOAT, false, 3*4, nil)
		gl.EnableVertexAttribArray(uint32(i))
	}

	gl.GenBuffers(1, &gm.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return gm
}

func deleteMesh(gm *gpuMesh) {
	gl.DeleteBuffers(3, &gm.buffers[0])
	gl.DeleteBuffers(1, &gm.ebo)
	gl.DeleteVertexArrays(1, &gm.vao)
}

// gridNormals estimates per-vertex normals of a regular grid by central differences
func gridNormals(positions []float32, resolution int) []float32 {
	normals := make([]float32, len(positions))
	at := func(col, row int) mgl32.Vec3 {
		col = clampInt(col, 0, resolution-1)
		row = clampInt(row, 0, resolution-1)
		i := (row*resolution + col) * 3
		return mgl32.Vec3{positions[i], positions[i+1], positions[i+2]}
	}

	for row := 0; row < resolution; row++ {
		for col := 0; col < resolution; col++ {
			dx := at(col+1, row).Sub(at(col-1, row))
			dz := at(col, row+1).Sub(at(col, row-1))
			n := dz.Cross(dx)
			if n.Len() > 0 {
				n = n.Normalize()
			} else {
				n = mgl32.Vec3{0, 1, 0}
			}
			i := (row*resolution + col) * 3
			copy(normals[i:i+3], n[:])
		}
	}
	return normals
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// aircraftMesh is a small dart pointing along -Z
func aircraftMesh() (positions, colors, normals []float32, indices []uint32) {
	positions = []float32{
		0, 0, -6, // nose
		-5, 0, 3, // left wingtip
		5, 0, 3, // right wingtip
		0, 1.5, 2, // tail fin
	}
	colors = []float32{
		0.9, 0.2, 0.1,
		0.8, 0.8, 0.8,
		0.8, 0.8, 0.8,
		0.9, 0.2, 0.1,
	}
	normals = []float32{
		0, 1, 0,
		0, 1, 0,
		0, 1, 0,
		0, 1, 0,
	}
	indices = []uint32{0, 1, 2, 0, 3, 2, 0, 1, 3}
	return
}

// UpdateResolution updates the renderer resolution
func (r *OpenGLRenderer) UpdateResolution(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.width, r.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
}

func quat32(q mgl64.Quat) mgl32.Quat {
	return mgl32.Quat{W: float32(q.W), V: mgl32.Vec3{float32(q.V[0]), float32(q.V[1]), float32(q.V[2])}}
}

func vec32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// Render draws the terrain from a chase camera behind the aircraft
func (r *OpenGLRenderer) Render(frame Frame) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.UseProgram(r.shaderProgram)

	pos := vec32(frame.Body.Position)
	forward := vec32(frame.Body.Forward)
	up := vec32(frame.Body.Up)
	eye := pos.Sub(forward.Mul(30)).Add(mgl32.Vec3{0, 8, 0})
	target := pos.Add(forward.Mul(20))
	if math.Abs(float64(up.Y())) < 0.2 {
		up = mgl32.Vec3{0, 1, 0}
	}

	aspect := float32(r.width) / float32(r.height)
	projection := mgl32.Perspective(mgl32.DegToRad(r.fov), aspect, 1, r.farClip)
	view := mgl32.LookAtV(eye, target, up)

	gl.UniformMatrix4fv(r.projectionLoc, 1, false, &projection[0])
	gl.UniformMatrix4fv(r.viewLoc, 1, false, &view[0])
	light := mgl32.Vec3{-0.4, -1, -0.3}
	gl.Uniform3fv(r.lightDirLoc, 1, &light[0])
	gl.Uniform3fv(r.fogColorLoc, 1, &skyColor[0])
	gl.Uniform1f(r.fogStartLoc, r.farClip*0.5)
	gl.Uniform1f(r.fogEndLoc, r.farClip)

	for _, gm := range r.chunks {
		model := mgl32.Translate3D(gm.originX, 0, gm.originZ)
		r.draw(gm, model)
	}

	model := mgl32.Translate3D(pos[0], pos[1], pos[2]).Mul4(quat32(frame.Body.Orientation).Mat4())
	r.draw(r.aircraft, model)
}

func (r *OpenGLRenderer) draw(gm *gpuMesh, model mgl32.Mat4) {
	gl.UniformMatrix4fv(r.modelLoc, 1, false, &model[0])
	gl.BindVertexArray(gm.vao)
	gl.DrawElements(gl.TRIANGLES, gm.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// Close releases GPU resources
func (r *OpenGLRenderer) Close() {
	for key := range r.chunks {
		r.dispose(key)
	}
	if r.aircraft != nil {
		deleteMesh(r.aircraft)
	}
	gl.DeleteProgram(r.shaderProgram)
}

// createShaderProgram compiles and links a shader program from source
func createShaderProgram(vertexSource, fragmentSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}

	fragmentShader, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))

		gl.DeleteProgram(program)
		gl.DeleteShader(vertexShader)
		gl.DeleteShader(fragmentShader)

		return 0, fmt.Errorf("shader program linking failed: %v", log)
	}

	// Shaders are no longer needed once linked
	gl.DetachShader(program, vertexShader)
	gl.DetachShader(program, fragmentShader)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	return program, nil
}

// compileShader compiles a shader from source
func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))

		gl.DeleteShader(shader)

		return 0, fmt.Errorf("shader compilation failed: %v", log)
	}

	return shader, nil
}
