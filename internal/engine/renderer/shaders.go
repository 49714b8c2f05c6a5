package renderer

const meshVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;
uniform mat4 uLightSpace;

out vec3 vNormal;
out vec4 vLightSpacePos;

void main() {
	vec4 world = uModel * vec4(aPos, 1.0);
	vNormal = mat3(transpose(inverse(uModel))) * aNormal;
	vLightSpacePos = uLightSpace * world;
	gl_Position = uProjection * uView * world;
}
`

const meshFragmentShader = `
#version 410 core

in vec3 vNormal;
in vec4 vLightSpacePos;

uniform vec3 uColor;
uniform float uOpacity;
uniform vec3 uAmbient;
uniform vec3 uLightColor;
uniform vec3 uLightDir;
uniform bool uReceiveShadow;
uniform bool uShadowOnly;
uniform sampler2DShadow uShadowMap;

out vec4 FragColor;

float shadowFactor() {
	vec3 proj = vLightSpacePos.xyz / vLightSpacePos.w * 0.5 + 0.5;
	if (proj.z > 1.0) {
		return 1.0;
	}
	// 3x3 PCF
	float sum = 0.0;
	vec2 texel = 1.0 / vec2(textureSize(uShadowMap, 0));
	for (int x = -1; x <= 1; x++) {
		for (int y = -1; y <= 1; y++) {
			sum += texture(uShadowMap, vec3(proj.xy + vec2(x, y) * texel, proj.z - 0.002));
		}
	}
	return sum / 9.0;
}

void main() {
	float lit = uReceiveShadow ? shadowFactor() : 1.0;
	if (uShadowOnly) {
		FragColor = vec4(0.0, 0.0, 0.0, (1.0 - lit) * uOpacity);
		return;
	}
	vec3 n = normalize(vNormal);
	if (!gl_FrontFacing) {
		n = -n;
	}
	float diffuse = max(dot(n, normalize(uLightDir)), 0.0);
	vec3 light = uAmbient + uLightColor * diffuse * lit;
	FragColor = vec4(uColor * light, uOpacity);
}
`

const depthVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uModel;
uniform mat4 uLightSpace;

void main() {
	gl_Position = uLightSpace * uModel * vec4(aPos, 1.0);
}
`

const depthFragmentShader = `
#version 410 core

void main() {
}
`

const lineVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uViewProjection;

void main() {
	gl_Position = uViewProjection * vec4(aPos, 1.0);
}
`

const lineFragmentShader = `
#version 410 core

uniform vec3 uColor;

out vec4 FragColor;

void main() {
	FragColor = vec4(uColor, 1.0);
}
`
