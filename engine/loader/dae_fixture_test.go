package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testJoints are the joints of the skinned fixture in bone order:
// Root -> Bone -> Bone_001, Root -> Hand.
var testJoints = []string{"Root", "Bone", "Bone_001", "Hand"}

const testDAEHead = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <asset>
    <up_axis>Z_UP</up_axis>
  </asset>
  <library_effects>
    <effect id="Red-effect">
      <profile_COMMON>
        <technique sid="common">
          <phong>
            <emission><color sid="emission">0 0 0 1</color></emission>
            <diffuse><color sid="diffuse">0.8 0.1 0.1 1</color></diffuse>
          </phong>
        </technique>
      </profile_COMMON>
    </effect>
    <effect id="Skin-effect">
      <profile_COMMON>
        <technique sid="common">
          <lambert>
            <diffuse><texture texture="skin_png-sampler" texcoord="UVMap"/></diffuse>
          </lambert>
        </technique>
      </profile_COMMON>
    </effect>
  </library_effects>
  <library_materials>
    <material id="Red-material" name="Red"><instance_effect url="#Red-effect"/></material>
    <material id="Skin-material" name="Skin"><instance_effect url="#Skin-effect"/></material>
  </library_materials>
  <library_geometries>
    <geometry id="Body-mesh" name="Body">
      <mesh>
        <source id="Body-mesh-positions">
          <float_array id="Body-mesh-positions-array" count="12">0 0 0 1 0 0 1 1 0 0 1 0</float_array>
          <technique_common>
            <accessor source="#Body-mesh-positions-array" count="4" stride="3">
              <param name="X" type="float"/><param name="Y" type="float"/><param name="Z" type="float"/>
            </accessor>
          </technique_common>
        </source>
        <source id="Body-mesh-normals">
          <float_array id="Body-mesh-normals-array" count="3">0 0 1</float_array>
          <technique_common>
            <accessor source="#Body-mesh-normals-array" count="1" stride="3">
              <param name="X" type="float"/><param name="Y" type="float"/><param name="Z" type="float"/>
            </accessor>
          </technique_common>
        </source>
        <source id="Body-mesh-map-0">
          <float_array id="Body-mesh-map-0-array" count="8">0 0 1 0 1 1 0 1</float_array>
          <technique_common>
            <accessor source="#Body-mesh-map-0-array" count="4" stride="2">
              <param name="S" type="float"/><param name="T" type="float"/>
            </accessor>
          </technique_common>
        </source>
        <vertices id="Body-mesh-vertices">
          <input semantic="POSITION" source="#Body-mesh-positions"/>
        </vertices>
        <polylist material="Red-material" count="1">
          <input semantic="VERTEX" source="#Body-mesh-vertices" offset="0"/>
          <input semantic="NORMAL" source="#Body-mesh-normals" offset="1"/>
          <input semantic="TEXCOORD" source="#Body-mesh-map-0" offset="2" set="0"/>
          <vcount>3 </vcount>
          <p>0 0 0 1 0 1 2 0 2</p>
        </polylist>
        <polylist material="Skin-material" count="1">
          <input semantic="VERTEX" source="#Body-mesh-vertices" offset="0"/>
          <input semantic="NORMAL" source="#Body-mesh-normals" offset="1"/>
          <input semantic="TEXCOORD" source="#Body-mesh-map-0" offset="2" set="0"/>
          <vcount>3 </vcount>
          <p>0 0 0 2 0 2 3 0 3</p>
        </polylist>
      </mesh>
    </geometry>
  </library_geometries>
  <library_controllers>
    <controller id="Armature_Body-skin" name="Armature">
      <skin source="#Body-mesh">
        <bind_shape_matrix>1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1</bind_shape_matrix>
        <source id="Armature_Body-skin-joints">
          <Name_array id="Armature_Body-skin-joints-array" count="4">Root Bone Bone_001 Hand</Name_array>
          <technique_common>
            <accessor source="#Armature_Body-skin-joints-array" count="4" stride="1">
              <param name="JOINT" type="name"/>
            </accessor>
          </technique_common>
        </source>
        <source id="Armature_Body-skin-bind_poses">
          <float_array id="Armature_Body-skin-bind_poses-array" count="64">1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1 1 0 0 0 0 1 0 0 0 0 1 -1 0 0 0 1 1 0 0 0 0 1 0 0 0 0 1 -2 0 0 0 1 1 0 0 -1 0 1 0 0 0 0 1 0 0 0 0 1</float_array>
          <technique_common>
            <accessor source="#Armature_Body-skin-bind_poses-array" count="4" stride="16">
              <param name="TRANSFORM" type="float4x4"/>
            </accessor>
          </technique_common>
        </source>
        <source id="Armature_Body-skin-weights">
          <float_array id="Armature_Body-skin-weights-array" count="5">1 0.5 0.5 1 1</float_array>
          <technique_common>
            <accessor source="#Armature_Body-skin-weights-array" count="5" stride="1">
              <param name="WEIGHT" type="float"/>
            </accessor>
          </technique_common>
        </source>
        <joints>
          <input semantic="JOINT" source="#Armature_Body-skin-joints"/>
          <input semantic="INV_BIND_MATRIX" source="#Armature_Body-skin-bind_poses"/>
        </joints>
        <vertex_weights count="4">
          <input semantic="JOINT" source="#Armature_Body-skin-joints" offset="0"/>
          <input semantic="WEIGHT" source="#Armature_Body-skin-weights" offset="1"/>
          <vcount>1 2 1 1 </vcount>
          <v>0 0 1 1 2 2 3 3 0 4</v>
        </vertex_weights>
      </skin>
    </controller>
  </library_controllers>
`

const testDAETail = `  <library_visual_scenes>
    <visual_scene id="Scene" name="Scene">
      <node id="Armature" name="Armature" type="NODE">
        <matrix sid="transform">1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1</matrix>
        <node id="Armature_Root" name="Root" sid="Root" type="JOINT">
          <matrix sid="transform">1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1</matrix>
          <node id="Armature_Bone" name="Bone" sid="Bone" type="JOINT">
            <matrix sid="transform">1 0 0 0 0 1 0 0 0 0 1 1 0 0 0 1</matrix>
            <node id="Armature_Bone_001" name="Bone.001" sid="Bone_001" type="JOINT">
              <matrix sid="transform">1 0 0 0 0 1 0 0 0 0 1 1 0 0 0 1</matrix>
              <extra><technique profile="blender"><layer sid="layer" type="string">0</layer></technique></extra>
            </node>
          </node>
          <node id="Armature_Hand" name="Hand" sid="Hand" type="JOINT">
            <translate sid="location">1 0 0</translate>
            <rotate sid="rotationZ">0 0 1 90</rotate>
          </node>
        </node>
      </node>
      <node id="Body" name="Body" type="NODE">
        <matrix sid="transform">1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1</matrix>
        <instance_controller url="#Armature_Body-skin">
          <skeleton>#Armature_Root</skeleton>
        </instance_controller>
      </node>
    </visual_scene>
  </library_visual_scenes>
  <scene>
    <instance_visual_scene url="#Scene"/>
  </scene>
</COLLADA>
`

// testAnimationLibrary builds a library_animations element with one animation per joint,
// declared in the given order. Keyframe f of joint b is a translation by (f, b, 0) at
// f*0.5 seconds. frames[i] is the keyframe count of order[i].
func testAnimationLibrary(order []string, frames []int) string {
	var sb strings.Builder
	sb.WriteString("  <library_animations>\n")
	for i, joint := range order {
		bone := 0
		for b, name := range testJoints {
			if name == joint {
				bone = b
			}
		}
		id := "Armature_" + joint + "_pose_matrix"
		n := frames[i]

		times := make([]string, n)
		transforms := make([]string, n)
		interpolations := make([]string, n)
		for f := 0; f < n; f++ {
			times[f] = fmt.Sprintf("%g", float64(f)*0.5)
			transforms[f] = fmt.Sprintf("1 0 0 %d 0 1 0 %d 0 0 1 0 0 0 0 1", f, bone)
			interpolations[f] = "LINEAR"
		}

		fmt.Fprintf(&sb, `    <animation id="%[1]s" name="Armature">
      <source id="%[1]s-input">
        <float_array id="%[1]s-input-array" count="%[2]d">%[3]s</float_array>
        <technique_common>
          <accessor source="#%[1]s-input-array" count="%[2]d" stride="1">
            <param name="TIME" type="float"/>
          </accessor>
        </technique_common>
      </source>
      <source id="%[1]s-output">
        <float_array id="%[1]s-output-array" count="%[4]d">%[5]s</float_array>
        <technique_common>
          <accessor source="#%[1]s-output-array" count="%[2]d" stride="16">
            <param name="TRANSFORM" type="float4x4"/>
          </accessor>
        </technique_common>
      </source>
      <source id="%[1]s-interpolation">
        <Name_array id="%[1]s-interpolation-array" count="%[2]d">%[6]s</Name_array>
        <technique_common>
          <accessor source="#%[1]s-interpolation-array" count="%[2]d" stride="1">
            <param name="INTERPOLATION" type="name"/>
          </accessor>
        </technique_common>
      </source>
      <sampler id="%[1]s-sampler">
        <input semantic="INPUT" source="#%[1]s-input"/>
        <input semantic="OUTPUT" source="#%[1]s-output"/>
        <input semantic="INTERPOLATION" source="#%[1]s-interpolation"/>
      </sampler>
      <channel source="#%[1]s-sampler" target="Armature_%[7]s/transform"/>
    </animation>
`, id, n, strings.Join(times, " "), 16*n, strings.Join(transforms, " "), strings.Join(interpolations, " "), joint)
	}
	sb.WriteString("  </library_animations>\n")
	return sb.String()
}

// testDAEDocument returns the skinned fixture. Bone_001 is animated before Bone so the
// lookup for Bone has to skip the longer joint's animation.
func testDAEDocument(frames []int) string {
	order := []string{"Root", "Bone_001", "Bone", "Hand"}
	return testDAEHead + testAnimationLibrary(order, frames) + testDAETail
}

// writeTestFile writes data into a fresh temporary directory and returns its path.
func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("expected fixture %s to be written, got %v", name, err)
	}
	return path
}
