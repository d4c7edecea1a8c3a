package reader

import (
	"bufio"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/shapeview/asset"
	"github.com/achilleasa/shapeview/asset/scene"
	"github.com/achilleasa/shapeview/asset/texture"
	"github.com/achilleasa/shapeview/log"
	"github.com/achilleasa/shapeview/types"
)

// Wavefront models in the wild can contain very long lines.
const maxLineLen = 1024 * 1024

type wavefrontSceneReader struct {
	logger log.Logger

	// The parsed scene.
	scene *scene.Scene

	// A map of material names to scene material indices.
	matNameToIndex map[string]int

	// Currently selected material index.
	curMaterial int

	// A cache of loaded textures keyed by their resolved path. Failed loads
	// are cached as nil entries.
	textureCache map[string]*texture.Texture

	// List of normals and uv coords. Vertices are stored in the scene.
	normalList []types.Vec3
	uvList     []types.Vec2

	// An error stack that provides additional error information when
	// scene files include other files (material libs)
	errStack []string
}

// Create a new wavefront scene reader.
func newWavefrontReader() *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:         log.New("wavefront scene reader"),
		scene:          scene.New(),
		matNameToIndex: make(map[string]int),
		textureCache:   make(map[string]*texture.Texture),
		normalList:     make([]types.Vec3, 0),
		uvList:         make([]types.Vec2, 0),
		errStack:       make([]string, 0),
	}
}

// Read scene definition.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	r.logger.Infof(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	r.logger.Infof(
		"parsed %d meshes with %d triangles in %d ms",
		len(r.scene.Meshes), r.scene.NumTriangles(), time.Since(start).Nanoseconds()/1e6,
	)
	return r.scene, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = strings.Trim(
			fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	} else {
		errMsg = strings.Trim(
			fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	}

	return fmt.Errorf("%s", errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

func newLineScanner(res *asset.Resource) *bufio.Scanner {
	scanner := bufio.NewScanner(res)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	return scanner
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int = 0

	scanner := newLineScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "mtllib":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "mtllib"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			// Library names may contain spaces
			libName := strings.Join(lineTokens[1:], " ")
			r.pushFrame(fmt.Sprintf("referenced from %s:%d [mtllib]", res.Path(), lineNum))
			incRes, err := asset.NewResource(libName, res)
			if err != nil {
				r.logger.Warningf("skipping material library %q: %s", libName, err.Error())
				r.popFrame()
				continue
			}

			err = r.parseMaterials(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "usemtl":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for 'usemtl'; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName := lineTokens[1]
			matIndex, exists := r.matNameToIndex[matName]
			if !exists {
				r.logger.Warningf(`[%s: %d] undefined material "%s"; using default material`, res.Path(), lineNum, matName)
				matIndex = 0
			}
			r.curMaterial = matIndex
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.scene.Vertices = append(r.scene.Vertices, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.normalList = append(r.normalList, v.Normalize())
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.uvList = append(r.uvList, v)
		case "g", "o":
			name := "default"
			if len(lineTokens) >= 2 {
				name = strings.Join(lineTokens[1:], " ")
			}

			r.verifyLastParsedMesh()
			r.scene.Meshes = append(r.scene.Meshes, scene.NewMesh(name))
		case "f":
			triList, err := r.parseFace(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}

			// If no object has been defined create a default one
			if len(r.scene.Meshes) == 0 {
				r.scene.Meshes = append(r.scene.Meshes, scene.NewMesh("default"))
			}

			meshIndex := len(r.scene.Meshes) - 1
			r.scene.Meshes[meshIndex].Triangles = append(r.scene.Meshes[meshIndex].Triangles, triList...)
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, err.Error())
	}

	r.verifyLastParsedMesh()
	return nil
}

// Drop the last parsed mesh if it contains no triangles.
func (r *wavefrontSceneReader) verifyLastParsedMesh() {
	lastMeshIndex := len(r.scene.Meshes) - 1
	if lastMeshIndex >= 0 && len(r.scene.Meshes[lastMeshIndex].Triangles) == 0 {
		r.logger.Debugf(`dropping mesh "%s" as it contains no polygons`, r.scene.Meshes[lastMeshIndex].Name)
		r.scene.Meshes = r.scene.Meshes[:lastMeshIndex]
	}
}

// Parse face definition. Each face definition consists of 3 or more arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 args separated by a slash character. The following formats are
// supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate
// an offset off the end of the vertex/uv list.
//
// Polygons with more than 3 vertices are triangulated as a fan around the
// first vertex.
func (r *wavefrontSceneReader) parseFace(lineTokens []string) ([]scene.Triangle, error) {
	if len(lineTokens) < 4 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	numVerts := len(lineTokens) - 1
	indices := make([]uint32, numVerts)
	normals := make([]types.Vec3, numVerts)
	uvs := make([]types.Vec2, numVerts)
	expIndices := 0
	hasNormals := true
	hasUVs := true
	for arg := 0; arg < numVerts; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return nil, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.scene.Vertices))
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		indices[arg] = uint32(vOffset)

		// Parse UV coords if specified
		if expIndices > 1 && vTokens[1] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[1], len(r.uvList))
			if err != nil {
				return nil, fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
			uvs[arg] = r.uvList[vOffset]
		} else {
			hasUVs = false
		}

		// Parse normal coords if specified
		if expIndices > 2 && vTokens[2] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[2], len(r.normalList))
			if err != nil {
				return nil, fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
			normals[arg] = r.normalList[vOffset]
		} else {
			hasNormals = false
		}
	}

	triangles := make([]scene.Triangle, 0, numVerts-2)
	for fan := 1; fan < numVerts-1; fan++ {
		corners := [3]int{0, fan, fan + 1}

		tri := scene.Triangle{
			Material:   r.curMaterial,
			HasNormals: hasNormals,
			HasUVs:     hasUVs,
		}
		for triIndex, selectIndex := range corners {
			tri.Indices[triIndex] = indices[selectIndex]
			tri.Normals[triIndex] = normals[selectIndex]
			tri.UVs[triIndex] = uvs[selectIndex]
		}
		triangles = append(triangles, tri)
	}

	return triangles, nil
}

// Parse a wavefront material library.
func (r *wavefrontSceneReader) parseMaterials(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	r.logger.Infof(`parsing material library "%s"`, res.Path())

	scanner := newLineScanner(res)

	var curMaterial *scene.Material = nil

	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "newmtl":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName := lineTokens[1]
			if _, exists := r.matNameToIndex[matName]; exists {
				r.logger.Warningf(`[%s: %d] material "%s" already defined; keeping first definition`, res.Path(), lineNum, matName)
				curMaterial = &scene.Material{}
				continue
			}

			// Allocate new material and add it to library
			curMaterial = &scene.Material{
				Name: matName,
				Kd:   scene.DefaultDiffuse,
			}
			r.scene.Materials = append(r.scene.Materials, curMaterial)
			r.matNameToIndex[matName] = len(r.scene.Materials) - 1
		case "Kd":
			if curMaterial == nil {
				return r.emitError(res.Path(), lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
			}
			curMaterial.Kd, err = parseVec3(lineTokens)
		case "map_Kd":
			if curMaterial == nil {
				return r.emitError(res.Path(), lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
			}
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			// Texture options precede the file name which is the last token
			curMaterial.KdTex = lineTokens[len(lineTokens)-1]
			curMaterial.Texture = r.loadTexture(curMaterial.KdTex, res)
		}

		// Report any errors
		if err != nil {
			return r.emitError(res.Path(), lineNum, err.Error())
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, err.Error())
	}

	return nil
}

// Load a texture relative to the material library that references it.
// Textures that fail to load are reported and cached as nil so that the
// material falls back to its diffuse color.
func (r *wavefrontSceneReader) loadTexture(texPath string, relTo *asset.Resource) *texture.Texture {
	cacheKey := path.Join(path.Dir(relTo.Path()), texPath)
	if tex, cached := r.textureCache[cacheKey]; cached {
		return tex
	}

	texRes, err := asset.NewResource(texPath, relTo)
	if err != nil {
		r.logger.Warningf("could not open texture %q: %s", texPath, err.Error())
		r.textureCache[cacheKey] = nil
		return nil
	}
	defer texRes.Close()

	tex, err := texture.New(texRes)
	if err != nil {
		r.logger.Warningf("could not load texture %q: %s", texPath, err.Error())
		tex = nil
	}
	r.textureCache[cacheKey] = tex
	return tex
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = int(index - 1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 row. Some exporters emit a third (w) texture coordinate
// which is ignored.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
