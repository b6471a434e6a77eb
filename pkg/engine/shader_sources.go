package engine

// Shader sources for the terrain renderer

// Vertex shader shared by terrain chunks and the aircraft marker
const terrainVertexShaderSource = `
#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aColor;
layout (location = 2) in vec3 aNormal;

uniform mat4 projection;
uniform mat4 view;
uniform mat4 model;

out vec3 Color;
out vec3 Normal;
out float ViewDepth;

void main() {
    vec4 world = model * vec4(aPos, 1.0);
    vec4 eye = view * world;
    gl_Position = projection * eye;
    Color = aColor;
    Normal = mat3(model) * aNormal;
    ViewDepth = -eye.z;
}
`

// Fragment shader: one directional light plus distance fog
const terrainFragmentShaderSource = `
#version 410 core
in vec3 Color;
in vec3 Normal;
in float ViewDepth;
out vec4 FragColor;

uniform vec3 lightDir;
uniform vec3 fogColor;
uniform float fogStart;
uniform float fogEnd;

void main() {
    float diffuse = max(dot(normalize(Normal), normalize(-lightDir)), 0.0);
    vec3 lit = Color * (0.35 + 0.65 * diffuse);

    float fog = clamp((ViewDepth - fogStart) / (fogEnd - fogStart), 0.0, 1.0);
    FragColor = vec4(mix(lit, fogColor, fog), 1.0);
}
`
